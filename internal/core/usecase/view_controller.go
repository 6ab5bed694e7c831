package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/ports"
)

const (
	AnalysisFailedNotice    = "Analysis failed. Please try again."
	AnalysisCancelledNotice = "Analysis cancelled."
)

type ViewControllerOptions struct {
	SessionID       string
	AnalysisTimeout time.Duration
	ChatTimeout     time.Duration
	IngestTimeout   time.Duration
	LogoTimeout     time.Duration
	MaxContextRunes int

	Logos    ports.LogoFinder
	Journal  ports.EvaluationJournal
	Observer ports.ViewObserver
	Now      func() time.Time
}

// ViewController owns the landing/intake/loading/result flow and the chat
// overlay. Events are serialized under one mutex; asynchronous work re-enters
// through sequence-checked completions so stale replies are dropped.
type ViewController struct {
	analyzer ports.Analyzer
	ingestor ports.DocumentIngestor
	chat     ports.ChatResponder
	opts     ViewControllerOptions

	baseCtx context.Context
	stop    context.CancelFunc

	mu           sync.Mutex
	state        domain.ViewState
	draft        domain.IntakeDraft
	result       *domain.AnalysisResult
	notice       string
	loadingSince time.Time

	launchSeq    uint64
	cancelLaunch context.CancelFunc
	ingestSeq    uint64

	chatOpen    bool
	chatEpoch   uint64
	chatPending int
	thread      domain.ChatThread
}

func NewViewController(
	ctx context.Context,
	analyzer ports.Analyzer,
	ingestor ports.DocumentIngestor,
	chat ports.ChatResponder,
	opts ViewControllerOptions,
) *ViewController {
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = 120 * time.Second
	}
	if opts.ChatTimeout <= 0 {
		opts.ChatTimeout = 60 * time.Second
	}
	if opts.IngestTimeout <= 0 {
		opts.IngestTimeout = 60 * time.Second
	}
	if opts.LogoTimeout <= 0 {
		opts.LogoTimeout = 10 * time.Second
	}
	if opts.MaxContextRunes <= 0 {
		opts.MaxContextRunes = defaultMaxContextRunes
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if ctx == nil {
		ctx = context.Background()
	}

	baseCtx, stop := context.WithCancel(ctx)
	return &ViewController{
		analyzer: analyzer,
		ingestor: ingestor,
		chat:     chat,
		opts:     opts,
		baseCtx:  baseCtx,
		stop:     stop,
		state:    domain.ViewLanding,
	}
}

func (c *ViewController) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.ViewLanding {
		return c.invalidTransition("start")
	}
	c.transition(domain.ViewIntake)
	return nil
}

func (c *ViewController) EditQuery(query string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.ViewIntake {
		return c.invalidTransition("edit query")
	}
	c.draft.CompanyQuery = query
	return nil
}

// SelectFile records the file and ingests it in the background. Extracted text
// replaces the draft text only when this selection is still the latest one.
func (c *ViewController) SelectFile(file domain.FileHandle) (ports.Pending, error) {
	if file == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "select file", fmt.Errorf("file is required"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.ViewIntake {
		return nil, c.invalidTransition("select file")
	}

	c.ingestSeq++
	seq := c.ingestSeq
	c.draft.Upload = domain.UploadState{Selected: file, Ingesting: true}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(c.baseCtx, c.opts.IngestTimeout)
		defer cancel()

		text, err := c.ingestor.Ingest(ctx, file)
		c.finishIngest(seq, file.Name(), text, err)
	}()
	return done, nil
}

// ClearFile drops the selected file and its extracted text from the draft.
// An ingest still in flight for that file is discarded when it settles.
func (c *ViewController) ClearFile() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.ViewIntake {
		return c.invalidTransition("clear file")
	}
	c.ingestSeq++
	c.draft.Upload = domain.UploadState{}
	c.draft.ExtractedText = ""
	return nil
}

func (c *ViewController) finishIngest(seq uint64, fileName, text string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.ingestSeq {
		return
	}
	c.draft.Upload.Ingesting = false
	if err != nil {
		c.draft.Upload.Failure = fmt.Sprintf("Could not read %s. You can still launch without it.", fileName)
		c.opts.Observer.ObserveIngest("error")
		slog.Warn("file_ingest_failed",
			"session_id", c.opts.SessionID,
			"file", fileName,
			"error", err,
		)
		return
	}
	c.draft.Upload.Failure = ""
	c.draft.ExtractedText = text
	c.opts.Observer.ObserveIngest("success")
}

// Launch moves Intake to Loading and calls the analysis backend. A blank
// company query leaves the state untouched and issues no call.
func (c *ViewController) Launch() (ports.Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.ViewIntake {
		return nil, c.invalidTransition("launch")
	}
	query := strings.TrimSpace(c.draft.CompanyQuery)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	prompt := ComposeAnalysisPrompt(query, c.draft.ExtractedText, c.opts.MaxContextRunes)
	c.launchSeq++
	seq := c.launchSeq
	ctx, cancel := context.WithTimeout(c.baseCtx, c.opts.AnalysisTimeout)
	c.cancelLaunch = cancel
	c.notice = ""
	c.loadingSince = c.opts.Now()
	c.transition(domain.ViewLoading)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()

		started := c.opts.Now()
		result, err := c.analyzer.Analyze(ctx, prompt)
		if err == nil && result == nil {
			err = domain.WrapError(domain.ErrInvalidResponse, "analyze", fmt.Errorf("empty result"))
		}
		if !c.finishAnalysis(seq, query, result, err, started) {
			return
		}
		if err == nil {
			c.decorateLogo(seq, query)
		}
	}()
	return done, nil
}

func (c *ViewController) finishAnalysis(seq uint64, query string, result *domain.AnalysisResult, err error, started time.Time) bool {
	c.mu.Lock()
	if seq != c.launchSeq || c.state != domain.ViewLoading {
		c.mu.Unlock()
		return false
	}

	elapsed := c.opts.Now().Sub(started)
	c.cancelLaunch = nil
	record := domain.EvaluationRecord{
		CompanyQuery: query,
		Duration:     elapsed,
	}
	if err != nil {
		c.result = nil
		c.notice = AnalysisFailedNotice
		c.transition(domain.ViewIntake)
		record.Status = domain.EvaluationFailed
		record.Error = err.Error()
		slog.Error("analysis_failed",
			"session_id", c.opts.SessionID,
			"company", query,
			"duration_ms", float64(elapsed.Microseconds())/1000.0,
			"error", err,
		)
	} else {
		c.result = result.Clone()
		c.transition(domain.ViewResult)
		record.Status = domain.EvaluationSucceeded
		record.OverallScore = result.Score(domain.MetricOverall)
		slog.Info("analysis_completed",
			"session_id", c.opts.SessionID,
			"company", query,
			"duration_ms", float64(elapsed.Microseconds())/1000.0,
			"missing_metrics", len(result.Missing),
		)
	}
	c.mu.Unlock()

	c.opts.Observer.ObserveAnalysis(record.Status, elapsed)
	c.recordEvaluation(record)
	return true
}

func (c *ViewController) decorateLogo(seq uint64, query string) {
	if c.opts.Logos == nil {
		return
	}

	c.mu.Lock()
	if c.result == nil || c.result.LogoURL != "" {
		c.mu.Unlock()
		return
	}
	name := strings.TrimSpace(c.result.CompanyInfo.Name)
	c.mu.Unlock()
	if name == "" {
		name = query
	}

	ctx, cancel := context.WithTimeout(c.baseCtx, c.opts.LogoTimeout)
	defer cancel()
	logoURL, err := c.opts.Logos.FindLogo(ctx, name)
	if err != nil {
		slog.Warn("logo_lookup_failed", "session_id", c.opts.SessionID, "company", name, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq == c.launchSeq && c.state == domain.ViewResult && c.result != nil {
		c.result.LogoURL = logoURL
	}
}

// Cancel abandons an in-flight analysis and returns to Intake.
func (c *ViewController) Cancel() error {
	c.mu.Lock()
	if c.state != domain.ViewLoading {
		err := c.invalidTransition("cancel")
		c.mu.Unlock()
		return err
	}

	c.launchSeq++
	if c.cancelLaunch != nil {
		c.cancelLaunch()
		c.cancelLaunch = nil
	}
	elapsed := c.opts.Now().Sub(c.loadingSince)
	c.notice = AnalysisCancelledNotice
	c.transition(domain.ViewIntake)
	query := strings.TrimSpace(c.draft.CompanyQuery)
	c.mu.Unlock()

	c.opts.Observer.ObserveAnalysis(domain.EvaluationCancelled, elapsed)
	c.recordEvaluation(domain.EvaluationRecord{
		CompanyQuery: query,
		Status:       domain.EvaluationCancelled,
		Duration:     elapsed,
	})
	return nil
}

// GoBack discards the result and the chat overlay but keeps the draft.
func (c *ViewController) GoBack() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.ViewResult {
		return c.invalidTransition("go back")
	}
	c.result = nil
	c.notice = ""
	c.closeChatLocked()
	c.transition(domain.ViewIntake)
	return nil
}

func (c *ViewController) OpenChat() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.ViewResult {
		return c.invalidTransition("open chat")
	}
	if c.chatOpen {
		return nil
	}
	c.chatOpen = true
	c.thread.Reset()
	return nil
}

func (c *ViewController) CloseChat() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.ViewResult {
		return c.invalidTransition("close chat")
	}
	c.closeChatLocked()
	return nil
}

func (c *ViewController) closeChatLocked() {
	if !c.chatOpen {
		return
	}
	c.chatOpen = false
	c.chatEpoch++
	c.chatPending = 0
	c.thread.Reset()
}

// SendChat appends the user message and asks the chat service for a reply.
// Failures become an assistant error message and never change the view state.
func (c *ViewController) SendChat(message string) (ports.Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.ViewResult || !c.chatOpen {
		return nil, c.invalidTransition("send chat")
	}
	if strings.TrimSpace(message) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "send chat", fmt.Errorf("message is empty"))
	}

	c.thread.Append(domain.RoleUser, message)
	c.chatPending++
	epoch := c.chatEpoch
	result := c.result.Clone()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(c.baseCtx, c.opts.ChatTimeout)
		defer cancel()

		reply, err := c.chat.Reply(ctx, message, result)
		c.finishChat(epoch, reply, err)
	}()
	return done, nil
}

func (c *ViewController) finishChat(epoch uint64, reply string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.chatEpoch || !c.chatOpen {
		return
	}
	c.chatPending--
	if err != nil {
		c.thread.Append(domain.RoleAssistant, domain.ChatErrorText)
		c.opts.Observer.ObserveChat("error")
		slog.Warn("chat_reply_failed", "session_id", c.opts.SessionID, "error", err)
		return
	}
	c.thread.Append(domain.RoleAssistant, reply)
	c.opts.Observer.ObserveChat("success")
}

func (c *ViewController) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := domain.Snapshot{
		State:         c.state,
		CompanyQuery:  c.draft.CompanyQuery,
		FileName:      c.draft.Upload.FileName(),
		Ingesting:     c.draft.Upload.Ingesting,
		UploadFailure: c.draft.Upload.Failure,
		ExtractedText: c.draft.ExtractedText,
		Notice:        c.notice,
		Result:        c.result.Clone(),
		Chat: domain.ChatSnapshot{
			Open:     c.chatOpen,
			Pending:  c.chatPending,
			Messages: c.thread.Messages(),
		},
	}
	if c.state == domain.ViewLoading {
		snap.LoadingSince = c.loadingSince
	}
	return snap
}

// Close cancels every in-flight call owned by the controller.
func (c *ViewController) Close() {
	c.stop()
}

func (c *ViewController) transition(to domain.ViewState) {
	from := c.state
	c.state = to
	c.opts.Observer.ObserveTransition(from, to)
	slog.Debug("view_transition", "session_id", c.opts.SessionID, "from", from.String(), "to", to.String())
}

func (c *ViewController) invalidTransition(event string) error {
	return domain.WrapError(domain.ErrInvalidTransition, event, fmt.Errorf("not allowed in %s view", c.state))
}

func (c *ViewController) recordEvaluation(record domain.EvaluationRecord) {
	if c.opts.Journal == nil {
		return
	}
	record.ID = uuid.NewString()
	record.SessionID = c.opts.SessionID
	record.CreatedAt = c.opts.Now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.opts.Journal.Record(ctx, record); err != nil {
		slog.Warn("evaluation_journal_failed", "session_id", c.opts.SessionID, "status", string(record.Status), "error", err)
	}
}

var _ ports.ViewFlow = (*ViewController)(nil)

type noopObserver struct{}

func (noopObserver) ObserveTransition(domain.ViewState, domain.ViewState)   {}
func (noopObserver) ObserveAnalysis(domain.EvaluationStatus, time.Duration) {}
func (noopObserver) ObserveIngest(string)                                   {}
func (noopObserver) ObserveChat(string)                                     {}
