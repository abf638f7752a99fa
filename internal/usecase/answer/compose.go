package answer

import (
	"strings"

	"github.com/profscope/profscope/internal/domain"
)

// compose builds the generation conversation: standing instructions, the
// full session history (new user turn included), then the retrieved
// context as an assistant turn. Empty context adds no turn so the model
// is not handed a blank "Relevant reviews" block to riff on.
func compose(history []domain.Turn, contextText string) []domain.Turn {
	turns := make([]domain.Turn, 0, len(history)+2)
	turns = append(turns, domain.Turn{Role: domain.RoleSystem, Content: systemPrompt})
	turns = append(turns, history...)
	if contextText != "" {
		turns = append(turns, domain.Turn{
			Role:    domain.RoleAssistant,
			Content: "Relevant reviews:\n" + contextText,
		})
	}
	return turns
}

// contextFromChunks flattens retrieved chunks into one context block,
// most relevant first.
func contextFromChunks(chunks []domain.ScoredChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "\n\n")
}
