package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josinaldojr/pdfrag/internal/rag"
)

type scriptedAsker struct {
	answers map[string]string
	errs    map[string]error
	asked   []string
}

func (a *scriptedAsker) Ask(_ context.Context, req rag.AskRequest) (*rag.AskResponse, error) {
	a.asked = append(a.asked, req.Question)
	if err, ok := a.errs[req.Question]; ok {
		return nil, err
	}
	return &rag.AskResponse{Answer: a.answers[req.Question]}, nil
}

// blockingAsker waits for cancellation and reports when a question started.
type blockingAsker struct {
	started chan struct{}
}

func (a *blockingAsker) Ask(ctx context.Context, _ rag.AskRequest) (*rag.AskResponse, error) {
	close(a.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func runSession(t *testing.T, asker Asker, in io.Reader, interrupts chan os.Signal, timeout time.Duration) string {
	t.Helper()
	var out bytes.Buffer
	err := NewSession(asker, in, &out, interrupts, timeout).Run(context.Background())
	require.NoError(t, err)
	return out.String()
}

func TestSession_AnswersUntilExit(t *testing.T) {
	asker := &scriptedAsker{answers: map[string]string{
		"Where is the office?": "Our office is located in Lisbon.",
	}}

	out := runSession(t, asker, strings.NewReader("Where is the office?\n\n   \nEXIT\nnever asked\n"), nil, time.Second)

	assert.Equal(t, []string{"Where is the office?"}, asker.asked)
	assert.Contains(t, out, "Starting chat...")
	assert.Contains(t, out, "QUESTION: ")
	assert.Contains(t, out, "ANSWER: Our office is located in Lisbon.")
	assert.Contains(t, out, "---")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "Ending chat..."))
}

func TestSession_ExitWords(t *testing.T) {
	for _, word := range []string{"exit", "quit", "sair", "salir", " Quit "} {
		t.Run(word, func(t *testing.T) {
			asker := &scriptedAsker{}
			out := runSession(t, asker, strings.NewReader(word+"\nafter\n"), nil, time.Second)
			assert.Empty(t, asker.asked)
			assert.Contains(t, out, "Ending chat...")
		})
	}
}

func TestSession_ErrorDoesNotEndLoop(t *testing.T) {
	asker := &scriptedAsker{
		answers: map[string]string{"second": "fine"},
		errs: map[string]error{
			"first": &rag.StorageError{Kind: rag.StorageUnavailable, Err: errors.New("connection refused")},
		},
	}

	out := runSession(t, asker, strings.NewReader("first\nsecond\nexit\n"), nil, time.Second)

	assert.Equal(t, []string{"first", "second"}, asker.asked)
	assert.Contains(t, out, "error processing question: vector store unavailable: connection refused")
	assert.Contains(t, out, "ANSWER: fine")
}

func TestSession_EndOfInput(t *testing.T) {
	asker := &scriptedAsker{answers: map[string]string{"q": "a"}}
	out := runSession(t, asker, strings.NewReader("q"), nil, time.Second)

	assert.Equal(t, []string{"q"}, asker.asked)
	assert.Contains(t, out, "ANSWER: a")
}

func TestSession_InterruptCancelsQuestion(t *testing.T) {
	asker := &blockingAsker{started: make(chan struct{})}
	interrupts := make(chan os.Signal, 1)
	go func() {
		<-asker.started
		interrupts <- os.Interrupt
	}()

	out := runSession(t, asker, strings.NewReader("slow question\nexit\n"), interrupts, time.Minute)

	assert.Contains(t, out, "question cancelled")
	assert.Contains(t, out, "Ending chat...")
}

func TestSession_Timeout(t *testing.T) {
	asker := &blockingAsker{started: make(chan struct{})}
	out := runSession(t, asker, strings.NewReader("slow question\nexit\n"), nil, 20*time.Millisecond)

	assert.Contains(t, out, "error processing question: timed out after 20ms")
}

func TestSession_IdleInterruptEnds(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	interrupts := make(chan os.Signal, 1)
	interrupts <- os.Interrupt

	out := runSession(t, &scriptedAsker{}, pr, interrupts, time.Second)
	assert.Contains(t, out, "Ending chat...")
}

func TestSession_ContextCancelEnds(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := NewSession(&scriptedAsker{}, pr, &out, nil, time.Second).Run(ctx)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Ending chat...")
}
