package ollama

import (
	"errors"

	"github.com/kirillkom/startup-scout/internal/infrastructure/resilience"
)

const systemName = "ollama"

// errModelLoading is returned while the server is still pulling the model
// into memory; it clears on its own.
var errModelLoading = errors.New("ollama model is loading")

func classifyOllamaError(err error) resilience.ErrorClassification {
	if errors.Is(err, errModelLoading) {
		return resilience.Transient
	}
	return resilience.ClassifyHTTP(err)
}

func markTemporary(operation string, err error) error {
	return resilience.MarkTemporary(systemName+" "+operation, err, classifyOllamaError)
}
