package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Composer builds the grounded prompt and asks the model for an answer.
// The model output is not checked against the refusal sentence; grounding
// rests on the prompt.
type Composer struct {
	llm     Completer
	lang    string
	refusal string
	verbose bool
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithLanguage selects the prompt language (en, pt, es or auto).
func WithLanguage(lang string) ComposerOption {
	return func(c *Composer) {
		if lang != "" {
			c.lang = lang
		}
	}
}

// WithRefusal overrides the refusal sentence for every language.
func WithRefusal(sentence string) ComposerOption {
	return func(c *Composer) {
		c.refusal = strings.TrimSpace(sentence)
	}
}

// WithVerbose logs prompt sizes.
func WithVerbose(v bool) ComposerOption {
	return func(c *Composer) { c.verbose = v }
}

func NewComposer(llm Completer, opts ...ComposerOption) *Composer {
	c := &Composer{llm: llm, lang: LangEnglish}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildContext joins passage texts with a blank line, in rank order.
func BuildContext(res RetrievalResult) string {
	texts := make([]string, len(res))
	for i, p := range res {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n\n")
}

// Refusal returns the refusal sentence used for lang.
func (c *Composer) Refusal(lang string) string {
	if c.refusal != "" {
		return c.refusal
	}
	return RefusalSentence(lang)
}

// Prompt renders the full grounded prompt for a question.
func (c *Composer) Prompt(lang string, pc PromptContext) (string, error) {
	lang = c.resolveLang(lang, pc.Question)
	return renderPrompt(lang, c.Refusal(lang), pc)
}

// Answer answers question from res using the composer's language.
func (c *Composer) Answer(ctx context.Context, question string, res RetrievalResult) (string, error) {
	return c.AnswerIn(ctx, "", question, res)
}

// AnswerIn is Answer with a per-call language; "" keeps the composer default.
func (c *Composer) AnswerIn(ctx context.Context, lang, question string, res RetrievalResult) (string, error) {
	lang = c.resolveLang(lang, question)
	if len(res) == 0 {
		return c.Refusal(lang), nil
	}

	pc := PromptContext{Context: BuildContext(res), Question: question}
	prompt, err := renderPrompt(lang, c.Refusal(lang), pc)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	if c.verbose {
		log.Printf("[DEBUG] prompt lang=%s passages=%d context_chars=%d prompt_chars=%d", lang, len(res), len(pc.Context), len(prompt))
	}

	return c.llm.Complete(ctx, prompt)
}

func (c *Composer) resolveLang(lang, question string) string {
	if lang == "" {
		lang = c.lang
	}
	if lang == LangAuto {
		return detectLang(question)
	}
	if _, ok := promptTemplates[lang]; !ok {
		return LangEnglish
	}
	return lang
}
