package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

// Analyzer sends a composed prompt to the analysis backend.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (*domain.AnalysisResult, error)
}

// ChatResponder answers follow-up questions about an analysis result.
type ChatResponder interface {
	Reply(ctx context.Context, message string, result *domain.AnalysisResult) (string, error)
}

// TextExtractor turns an encoded document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, doc domain.EncodedDocument) (string, error)
}

// LogoFinder resolves a best-effort logo URL for a company name.
type LogoFinder interface {
	FindLogo(ctx context.Context, companyName string) (string, error)
}

// EvaluationJournal records settled launches.
type EvaluationJournal interface {
	Record(ctx context.Context, record domain.EvaluationRecord) error
	ListRecent(ctx context.Context, limit int) ([]domain.EvaluationRecord, error)
}

// ObjectStorage stages uploaded files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ViewObserver receives view controller events for metrics.
type ViewObserver interface {
	ObserveTransition(from, to domain.ViewState)
	ObserveAnalysis(status domain.EvaluationStatus, duration time.Duration)
	ObserveIngest(status string)
	ObserveChat(status string)
}
