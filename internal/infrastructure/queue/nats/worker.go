package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/startup-scout/internal/core/ports"
	"github.com/kirillkom/startup-scout/internal/infrastructure/backend"
	"github.com/nats-io/nats.go"
)

type replyEnvelope struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Serve answers analysis and chat requests with the given collaborators until
// ctx is cancelled, then drains both subscriptions.
func (t *Transport) Serve(ctx context.Context, analyzer ports.Analyzer, chat ports.ChatResponder, handlerTimeout time.Duration) error {
	if t.conn == nil {
		return fmt.Errorf("nats serve: transport is not connected")
	}

	analysisSub, err := t.conn.QueueSubscribe(t.analysisSubject, workerQueueGroup, func(msg *nats.Msg) {
		t.respond(ctx, msg, handlerTimeout, func(callCtx context.Context) []byte {
			return HandleAnalysis(callCtx, analyzer, msg.Data)
		})
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", t.analysisSubject, err)
	}
	chatSub, err := t.conn.QueueSubscribe(t.chatSubject, workerQueueGroup, func(msg *nats.Msg) {
		t.respond(ctx, msg, handlerTimeout, func(callCtx context.Context) []byte {
			return HandleChat(callCtx, chat, msg.Data)
		})
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", t.chatSubject, err)
	}

	if err := t.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	for _, sub := range []*nats.Subscription{analysisSub, chatSub} {
		if err := sub.Drain(); err != nil {
			return fmt.Errorf("nats drain subscription: %w", err)
		}
	}
	if err := t.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (t *Transport) respond(ctx context.Context, msg *nats.Msg, timeout time.Duration, handle func(context.Context) []byte) {
	if ctx.Err() != nil {
		return
	}
	handlerCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	reply := handle(handlerCtx)
	if err := msg.Respond(reply); err != nil {
		slog.Error("nats_respond_failed", "subject", msg.Subject, "error", err)
		return
	}
	slog.Info("nats_request_served",
		"subject", msg.Subject,
		"duration_ms", float64(time.Since(started).Microseconds())/1000.0,
	)
}

// HandleAnalysis answers one analysis request payload with a result envelope.
func HandleAnalysis(ctx context.Context, analyzer ports.Analyzer, data []byte) []byte {
	var req backend.AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return encodeReply(replyEnvelope{Error: "invalid analysis request"})
	}
	prompt := req.Message
	if prompt == "" {
		prompt = req.Content
	}
	if prompt == "" {
		return encodeReply(replyEnvelope{Error: "analysis prompt is empty"})
	}

	result, err := analyzer.Analyze(ctx, prompt)
	if err != nil {
		slog.Error("nats_analysis_failed", "error", err)
		return encodeReply(replyEnvelope{Error: err.Error()})
	}
	return encodeReply(replyEnvelope{Result: backend.ChatContext(result)})
}

func HandleChat(ctx context.Context, chat ports.ChatResponder, data []byte) []byte {
	var req backend.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return encodeReply(replyEnvelope{Error: "invalid chat request"})
	}

	// follow-ups are still answered when the context is unusable
	analysis, _ := backend.DecodeAnalysisResult(req.Context)

	reply, err := chat.Reply(ctx, req.Message, analysis)
	if err != nil {
		slog.Error("nats_chat_failed", "error", err)
		return encodeReply(replyEnvelope{Error: err.Error()})
	}
	return encodeReply(replyEnvelope{Result: reply})
}

func encodeReply(env replyEnvelope) []byte {
	raw, err := json.Marshal(env)
	if err != nil {
		return []byte(`{"error":"encode reply"}`)
	}
	return raw
}
