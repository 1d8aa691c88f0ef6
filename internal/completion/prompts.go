package completion

import (
	"fmt"
	"strings"
)

// GroundedPrompt asks the model to answer only from the supplied passages.
// Passages are joined with blank lines.
func GroundedPrompt(question string, passages []string) string {
	joined := strings.Join(passages, "\n\n")
	return fmt.Sprintf(`Based on the following context from uploaded documents, answer the question:

Context:
%s

Question: %s

Please provide a comprehensive answer based only on the information provided in the context.
If the context doesn't contain enough information to answer the question, say so.`, joined, question)
}

// GeneralPrompt is used when no document passage matches the question.
func GeneralPrompt(question string) string {
	return fmt.Sprintf(`You are a helpful AI assistant. Answer the following question in a friendly and informative way:

Question: %s

Provide a helpful response. If the user seems to want to book an appointment or be contacted,
suggest they can say "call me" or "book appointment".`, question)
}
