package answer

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/domain"
)

// promptTemplate interpolates retrieved text verbatim. Document content can
// therefore steer the model; nothing here guards against that.
const promptTemplate = `
Use the following document to answer the question.

Document:
%s

Question:
%s

Answer in a clear and simple way.
`

// BuildPrompt fills the answer template with context and question.
func BuildPrompt(docContext, question string) string {
	return fmt.Sprintf(promptTemplate, docContext, question)
}

// Composer asks the generative model to answer a question from a context.
type Composer struct {
	answerer domain.Answerer
}

func NewComposer(answerer domain.Answerer) *Composer {
	return &Composer{answerer: answerer}
}

// Answer sends the prompt in a new single-turn session and returns the
// reply with surrounding whitespace removed. Failures come back as *domain.GenerationError.
func (c *Composer) Answer(ctx context.Context, docContext, question string) (string, error) {
	session, err := c.answerer.StartSession(ctx)
	if err != nil {
		return "", &domain.GenerationError{Err: fmt.Errorf("start session: %w", err)}
	}
	reply, err := session.Send(ctx, BuildPrompt(docContext, question))
	if err != nil {
		return "", &domain.GenerationError{Err: err}
	}
	return strings.TrimSpace(reply), nil
}
