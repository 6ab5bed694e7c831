package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/infrastructure/backend"
	"github.com/kirillkom/startup-scout/internal/infrastructure/resilience"
	"github.com/nats-io/nats.go"
)

const (
	DefaultAnalysisSubject = "scout.analysis"
	DefaultChatSubject     = "scout.chat"
	workerQueueGroup       = "scout-workers"
)

type requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// Transport carries analysis and chat requests over NATS request/reply.
type Transport struct {
	conn            *nats.Conn
	requester       requester
	analysisSubject string
	chatSubject     string
	executor        *resilience.Executor
}

type Options struct {
	AnalysisSubject      string
	ChatSubject          string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url string, options Options) (*Transport, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("startup-scout"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	t := newTransport(conn, options)
	t.conn = conn
	return t, nil
}

func newTransport(req requester, options Options) *Transport {
	analysisSubject := options.AnalysisSubject
	if analysisSubject == "" {
		analysisSubject = DefaultAnalysisSubject
	}
	chatSubject := options.ChatSubject
	if chatSubject == "" {
		chatSubject = DefaultChatSubject
	}
	return &Transport{
		requester:       req,
		analysisSubject: analysisSubject,
		chatSubject:     chatSubject,
		executor:        options.ResilienceExecutor,
	}
}

func (t *Transport) Close() {
	if t.conn != nil {
		t.conn.Close()
	}
}

type Analyzer struct {
	transport *Transport
}

func NewAnalyzer(transport *Transport) *Analyzer {
	return &Analyzer{transport: transport}
}

func (a *Analyzer) Analyze(ctx context.Context, prompt string) (*domain.AnalysisResult, error) {
	body, err := a.transport.request(ctx, a.transport.analysisSubject, backend.AnalysisRequest{Message: prompt, Content: prompt}, "analyze")
	if err != nil {
		return nil, err
	}
	return backend.DecodeAnalysisEnvelope(body)
}

type ChatResponder struct {
	transport *Transport
}

func NewChatResponder(transport *Transport) *ChatResponder {
	return &ChatResponder{transport: transport}
}

func (c *ChatResponder) Reply(ctx context.Context, message string, result *domain.AnalysisResult) (string, error) {
	body, err := c.transport.request(ctx, c.transport.chatSubject, backend.ChatRequest{Message: message, Context: backend.ChatContext(result)}, "chat")
	if err != nil {
		return "", err
	}
	return backend.DecodeChatReply(body)
}

func (t *Transport) request(ctx context.Context, subject string, payload any, operation string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", operation, err)
	}

	var reply []byte
	call := func(callCtx context.Context) error {
		msg, err := t.requester.RequestWithContext(callCtx, subject, data)
		if err != nil {
			return fmt.Errorf("nats %s request: %w", operation, err)
		}
		reply = msg.Data
		return nil
	}

	if t.executor != nil {
		err = t.executor.Execute(ctx, "nats."+operation, call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, markTemporary(operation, err)
	}
	return reply, nil
}
