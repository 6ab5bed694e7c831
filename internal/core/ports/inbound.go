package ports

import (
	"context"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

// Pending is closed once the asynchronous work started by an event has settled.
type Pending <-chan struct{}

// ViewFlow is the inbound contract of the single-page view state machine.
type ViewFlow interface {
	Start() error
	EditQuery(query string) error
	SelectFile(file domain.FileHandle) (Pending, error)
	ClearFile() error
	Launch() (Pending, error)
	Cancel() error
	GoBack() error
	OpenChat() error
	CloseChat() error
	SendChat(message string) (Pending, error)
	Snapshot() domain.Snapshot
	Close()
}

// DocumentIngestor converts a selected file into extracted text.
type DocumentIngestor interface {
	Ingest(ctx context.Context, file domain.FileHandle) (string, error)
}
