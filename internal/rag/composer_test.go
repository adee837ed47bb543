package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoLLM struct {
	reply   string
	prompts []string
}

func (e *echoLLM) Complete(_ context.Context, prompt string) (string, error) {
	e.prompts = append(e.prompts, prompt)
	return e.reply, nil
}

func passages(texts ...string) RetrievalResult {
	res := make(RetrievalResult, len(texts))
	for i, t := range texts {
		res[i] = Passage{Text: t, Score: 1 - float64(i)/10}
	}
	return res
}

func TestBuildContext(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil))
	assert.Equal(t, "first", BuildContext(passages("first")))
	assert.Equal(t, "first\n\nsecond\n\nthird", BuildContext(passages("first", "second", "third")))
}

func TestComposer_PromptContract(t *testing.T) {
	c := NewComposer(&echoLLM{})
	prompt, err := c.Prompt("", PromptContext{Context: "Our office is located in Lisbon.", Question: "Where is the office?"})
	require.NoError(t, err)

	refusal := RefusalSentence(LangEnglish)
	assert.Contains(t, prompt, "CONTEXT:\nOur office is located in Lisbon.")
	assert.Contains(t, prompt, "Answer only based on the CONTEXT.")
	assert.Contains(t, prompt, "Never make things up or use outside knowledge.")
	assert.Contains(t, prompt, "Never give opinions or interpretations beyond what is written.")
	assert.Contains(t, prompt, "USER QUESTION:\nWhere is the office?")
	assert.Contains(t, prompt, `Question: "What is the capital of France?"`)
	assert.Contains(t, prompt, `Question: "How many customers do we have in 2024?"`)
	assert.Contains(t, prompt, `Question: "Do you think this is good or bad?"`)
	assert.Equal(t, 4, strings.Count(prompt, refusal), "refusal appears in the rule and in every example")
}

func TestComposer_EmptyRetrievalReturnsRefusal(t *testing.T) {
	llm := &echoLLM{reply: "should not be used"}
	c := NewComposer(llm)

	answer, err := c.Answer(context.Background(), "What is the capital of France?", nil)
	require.NoError(t, err)
	assert.Equal(t, "I do not have the necessary information to answer your question.", answer)
	assert.Empty(t, llm.prompts)
}

func TestComposer_OutOfContextQuestionIsRefused(t *testing.T) {
	llm := &groundedLLM{}
	c := NewComposer(llm)

	answer, err := c.Answer(context.Background(), "What is the capital of France?",
		passages("Quarterly revenue grew by 12 percent.", "The report covers the payment gateway."))
	require.NoError(t, err)
	assert.Equal(t, RefusalSentence(LangEnglish), answer)
	require.Len(t, llm.prompts, 1)
}

func TestComposer_AnswersFromContext(t *testing.T) {
	llm := &groundedLLM{}
	c := NewComposer(llm)

	answer, err := c.Answer(context.Background(), "Where is the office?",
		passages("Quarterly revenue grew by 12 percent.", "Our office is located in Lisbon."))
	require.NoError(t, err)
	assert.Contains(t, answer, "Lisbon")
	assert.Contains(t, llm.prompts[0], "Quarterly revenue grew by 12 percent.\n\nOur office is located in Lisbon.")
}

func TestComposer_OutputIsReturnedUnmodified(t *testing.T) {
	llm := &echoLLM{reply: "  Lisbon, per the context.\n"}
	c := NewComposer(llm)

	answer, err := c.Answer(context.Background(), "Where?", passages("Our office is located in Lisbon."))
	require.NoError(t, err)
	assert.Equal(t, "  Lisbon, per the context.\n", answer)
}

func TestComposer_ProviderErrorPropagates(t *testing.T) {
	llm := &groundedLLM{err: &ProviderError{Provider: "google", Op: "completion", Err: errors.New("context too long")}}
	c := NewComposer(llm)

	_, err := c.Answer(context.Background(), "Where is the office?", passages("Our office is located in Lisbon."))
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "google", pe.Provider)
}

func TestComposer_RefusalOverride(t *testing.T) {
	c := NewComposer(&echoLLM{}, WithRefusal("No answer available."))

	answer, err := c.Answer(context.Background(), "Anything?", nil)
	require.NoError(t, err)
	assert.Equal(t, "No answer available.", answer)

	prompt, err := c.Prompt("", PromptContext{Context: "ctx", Question: "q"})
	require.NoError(t, err)
	assert.Contains(t, prompt, `Answer: "No answer available."`)
}

func TestComposer_Languages(t *testing.T) {
	tests := []struct {
		name     string
		lang     string
		question string
		marker   string
		refusal  string
	}{
		{"english default", "", "Where is the office?", "USER QUESTION:", RefusalSentence(LangEnglish)},
		{"portuguese", LangPortuguese, "Onde fica o escritório?", "PERGUNTA DO USUÁRIO:", "Não tenho informações necessárias para responder sua pergunta."},
		{"spanish", LangSpanish, "¿Dónde está la oficina?", "PREGUNTA DEL USUARIO:", RefusalSentence(LangSpanish)},
		{"unknown falls back to english", "xx", "Where is the office?", "USER QUESTION:", RefusalSentence(LangEnglish)},
		{"auto detects portuguese", LangAuto,
			"Onde fica o escritório da empresa e quais são os horários de atendimento ao público durante a semana?",
			"PERGUNTA DO USUÁRIO:", RefusalSentence(LangPortuguese)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &echoLLM{reply: "ok"}
			c := NewComposer(llm)

			_, err := c.AnswerIn(context.Background(), tt.lang, tt.question, passages("some context"))
			require.NoError(t, err)
			require.Len(t, llm.prompts, 1)
			assert.Contains(t, llm.prompts[0], tt.marker)
			assert.Contains(t, llm.prompts[0], tt.refusal)

			answer, err := c.AnswerIn(context.Background(), tt.lang, tt.question, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.refusal, answer)
		})
	}
}
