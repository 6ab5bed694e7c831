package ollama

import (
	"encoding/json"
	"fmt"
)

func buildChatPrompt(message string, analysis json.RawMessage) string {
	return fmt.Sprintf(`You are a startup analyst answering follow-up questions about an evaluation you already produced.
Answer briefly and only from the evaluation below. If it does not cover the question, say so directly.

Evaluation:
%s

Question:
%s
`, string(analysis), message)
}
