package moderation

import "context"

// Translator produces a display string for a comment. No correctness is
// expected from it.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// SuffixTranslator is the stand-in translation service.
type SuffixTranslator struct{}

func (SuffixTranslator) Translate(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text + " (translated)", nil
}
