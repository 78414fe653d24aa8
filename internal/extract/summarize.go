package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kizuruki/historybowlreview/internal/questionbank"
)

// Summarize writes a study summary for the node called name.
func Summarize(ctx context.Context, gen Generator, name string, questions []questionbank.Question, maxTokens int) (string, error) {
	if len(questions) == 0 {
		return "", fmt.Errorf("no questions mention %q", name)
	}
	text, err := gen.Generate(ctx, SummaryPrompt(name, questions), maxTokens)
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}
	summary := strings.TrimSpace(text)
	if summary == "" {
		return "", ErrEmptyResponse
	}
	return summary, nil
}
