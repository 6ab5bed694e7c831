package backend

import (
	"github.com/kirillkom/startup-scout/internal/infrastructure/resilience"
)

const systemName = "backend"

// A 422 from the analysis service means the document itself was rejected,
// so it is surfaced as is instead of being retried.
func classifyBackendError(err error) resilience.ErrorClassification {
	return resilience.ClassifyHTTP(err)
}

func markTemporary(operation string, err error) error {
	return resilience.MarkTemporary(systemName+" "+operation, err, classifyBackendError)
}
