package mcpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/ports"
	"github.com/kirillkom/startup-scout/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/startup-scout/internal/presentation"
)

const (
	serverName    = "startup-scout"
	serverVersion = "1.0.0"

	defaultRecentLimit = 10
)

// Server exposes a single view flow as MCP tools. Tool calls are serialized
// by the flow itself.
type Server struct {
	flow     ports.ViewFlow
	journal  ports.EvaluationJournal
	baseline domain.Baseline
	mcp      *server.MCPServer
}

func New(flow ports.ViewFlow, journal ports.EvaluationJournal, baseline domain.Baseline) *Server {
	if baseline == nil {
		baseline = domain.DefaultBaseline()
	}
	s := &Server{
		flow:     flow,
		journal:  journal,
		baseline: baseline,
		mcp:      server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool("evaluate_startup",
		mcp.WithDescription("Score a startup on market, product, traction, risk and team and return the dashboard as JSON."),
		mcp.WithString("company", mcp.Required(), mcp.Description("Company name to evaluate.")),
		mcp.WithString("context_text", mcp.Description("Optional notes or pitch text used as context.")),
		mcp.WithString("pdf_path", mcp.Description("Optional local path to a pitch deck PDF or text file.")),
	), s.evaluateStartup)

	s.mcp.AddTool(mcp.NewTool("ask_followup",
		mcp.WithDescription("Ask a follow-up question about the most recent evaluation."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question about the evaluated company.")),
	), s.askFollowup)

	if journal != nil {
		s.mcp.AddTool(mcp.NewTool("list_recent_evaluations",
			mcp.WithDescription("List recently recorded evaluations."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of records, default 10.")),
		), s.listRecent)
	}
	return s
}

// ServeStdio blocks serving JSON-RPC over stdin and stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) evaluateStartup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	company, err := req.RequireString("company")
	if err != nil || strings.TrimSpace(company) == "" {
		return mcp.NewToolResultError("company is required"), nil
	}
	if err := s.resetToIntake(); err != nil {
		return nil, err
	}
	// Each call is evaluated on its own inputs only.
	if err := s.flow.ClearFile(); err != nil {
		return nil, err
	}
	if err := s.flow.EditQuery(company); err != nil {
		return nil, err
	}

	var warning string
	if file := contextFile(req.GetString("pdf_path", ""), req.GetString("context_text", "")); file != nil {
		pending, err := s.flow.SelectFile(file)
		if err != nil {
			return nil, err
		}
		if err := wait(ctx, pending); err != nil {
			return nil, err
		}
		if snap := s.flow.Snapshot(); snap.UploadFailure != "" {
			warning = fmt.Sprintf("%s could not be read; the evaluation used the company name only.", file.Name())
		}
	}

	pending, err := s.flow.Launch()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := wait(ctx, pending); err != nil {
		_ = s.flow.Cancel()
		return nil, err
	}

	snap := s.flow.Snapshot()
	if snap.State != domain.ViewResult {
		return mcp.NewToolResultError(firstNonEmpty(snap.Notice, "analysis did not complete")), nil
	}
	res, err := jsonResult(presentation.BuildDashboard(snap.Result, s.baseline))
	if err != nil {
		return nil, err
	}
	if warning != "" {
		res.Content = append(res.Content, mcp.NewTextContent(warning))
	}
	return res, nil
}

func (s *Server) askFollowup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question is required"), nil
	}
	if s.flow.Snapshot().State != domain.ViewResult {
		return mcp.NewToolResultError("no evaluation yet; call evaluate_startup first"), nil
	}
	if err := s.flow.OpenChat(); err != nil {
		return nil, err
	}

	pending, err := s.flow.SendChat(question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := wait(ctx, pending); err != nil {
		return nil, err
	}

	messages := s.flow.Snapshot().Chat.Messages
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleAssistant {
			if messages[i].Text == domain.ChatErrorText {
				return mcp.NewToolResultError(messages[i].Text), nil
			}
			return mcp.NewToolResultText(messages[i].Text), nil
		}
	}
	return mcp.NewToolResultError("no reply received"), nil
}

func (s *Server) listRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(req.GetFloat("limit", defaultRecentLimit))
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	records, err := s.journal.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent evaluations: %w", err)
	}
	return jsonResult(records)
}

// resetToIntake walks the flow back to Intake from whatever state a previous
// call left it in.
func (s *Server) resetToIntake() error {
	switch s.flow.Snapshot().State {
	case domain.ViewLanding:
		return s.flow.Start()
	case domain.ViewLoading:
		return s.flow.Cancel()
	case domain.ViewResult:
		return s.flow.GoBack()
	}
	return nil
}

func contextFile(path, text string) domain.FileHandle {
	if path = strings.TrimSpace(path); path != "" {
		return localfs.PathFile{Path: path}
	}
	if strings.TrimSpace(text) != "" {
		return textFile(text)
	}
	return nil
}

type textFile string

func (textFile) Name() string { return "context.txt" }

func (f textFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte(f))), nil
}

func wait(ctx context.Context, pending ports.Pending) error {
	select {
	case <-pending:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
