package nats

import (
	"github.com/kirillkom/startup-scout/internal/infrastructure/resilience"
	"github.com/nats-io/nats.go"
)

// A request with no responders means no worker is subscribed yet; the
// request is retried like a dropped connection.
var classifyNATSError = resilience.ClassifyMatching(
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
	nats.ErrNoResponders,
)

func markTemporary(operation string, err error) error {
	return resilience.MarkTemporary("nats "+operation, err, classifyNATSError)
}
