package rag

import (
	"strings"
	"text/template"

	wl "github.com/abadojack/whatlanggo"
)

const (
	LangEnglish    = "en"
	LangPortuguese = "pt"
	LangSpanish    = "es"
	LangAuto       = "auto"
)

// Refusal sentences per prompt language. The model is told to answer with
// exactly this sentence when the context lacks the answer.
var refusals = map[string]string{
	LangEnglish:    "I do not have the necessary information to answer your question.",
	LangPortuguese: "Não tenho informações necessárias para responder sua pergunta.",
	LangSpanish:    "No tengo la información necesaria para responder a tu pregunta.",
}

// RefusalSentence returns the refusal for lang, falling back to English.
func RefusalSentence(lang string) string {
	if r, ok := refusals[lang]; ok {
		return r
	}
	return refusals[LangEnglish]
}

// The out-of-context examples anchor the refusal behaviour; they are part of
// every prompt.
var promptTemplates = map[string]*template.Template{
	LangEnglish: template.Must(template.New(LangEnglish).Parse(`
CONTEXT:
{{.Context}}

RULES:
- Answer only based on the CONTEXT.
- If the information is not explicitly in the CONTEXT, answer:
  "{{.Refusal}}"
- Never make things up or use outside knowledge.
- Never give opinions or interpretations beyond what is written.

EXAMPLES OF QUESTIONS OUTSIDE THE CONTEXT:
Question: "What is the capital of France?"
Answer: "{{.Refusal}}"

Question: "How many customers do we have in 2024?"
Answer: "{{.Refusal}}"

Question: "Do you think this is good or bad?"
Answer: "{{.Refusal}}"

USER QUESTION:
{{.Question}}

ANSWER THE "USER QUESTION"
`)),
	LangPortuguese: template.Must(template.New(LangPortuguese).Parse(`
CONTEXTO:
{{.Context}}

REGRAS:
- Responda somente com base no CONTEXTO.
- Se a informação não estiver explicitamente no CONTEXTO, responda:
  "{{.Refusal}}"
- Nunca invente ou use conhecimento externo.
- Nunca produza opiniões ou interpretações além do que está escrito.

EXEMPLOS DE PERGUNTAS FORA DO CONTEXTO:
Pergunta: "Qual é a capital da França?"
Resposta: "{{.Refusal}}"

Pergunta: "Quantos clientes temos em 2024?"
Resposta: "{{.Refusal}}"

Pergunta: "Você acha isso bom ou ruim?"
Resposta: "{{.Refusal}}"

PERGUNTA DO USUÁRIO:
{{.Question}}

RESPONDA A "PERGUNTA DO USUÁRIO"
`)),
	LangSpanish: template.Must(template.New(LangSpanish).Parse(`
CONTEXTO:
{{.Context}}

REGLAS:
- Responde solo con base en el CONTEXTO.
- Si la información no está explícitamente en el CONTEXTO, responde:
  "{{.Refusal}}"
- Nunca inventes ni uses conocimiento externo.
- Nunca des opiniones o interpretaciones más allá de lo que está escrito.

EJEMPLOS DE PREGUNTAS FUERA DEL CONTEXTO:
Pregunta: "¿Cuál es la capital de Francia?"
Respuesta: "{{.Refusal}}"

Pregunta: "¿Cuántos clientes tenemos en 2024?"
Respuesta: "{{.Refusal}}"

Pregunta: "¿Crees que esto es bueno o malo?"
Respuesta: "{{.Refusal}}"

PREGUNTA DEL USUARIO:
{{.Question}}

RESPONDE LA "PREGUNTA DEL USUARIO"
`)),
}

type promptData struct {
	Context  string
	Question string
	Refusal  string
}

func renderPrompt(lang, refusal string, pc PromptContext) (string, error) {
	tmpl, ok := promptTemplates[lang]
	if !ok {
		tmpl = promptTemplates[LangEnglish]
	}
	var b strings.Builder
	err := tmpl.Execute(&b, promptData{
		Context:  pc.Context,
		Question: pc.Question,
		Refusal:  refusal,
	})
	return b.String(), err
}

// detectLang maps the question language onto a supported prompt language.
func detectLang(s string) string {
	info := wl.Detect(s)
	switch info.Lang {
	case wl.Por:
		return LangPortuguese
	case wl.Spa:
		return LangSpanish
	default:
		return LangEnglish
	}
}

// SupportedLanguage reports whether lang selects a prompt template or auto detection.
func SupportedLanguage(lang string) bool {
	_, ok := promptTemplates[lang]
	return ok || lang == LangAuto
}
