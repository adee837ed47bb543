package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/josinaldojr/pdfrag/internal/rag"
)

// Asker answers one question.
type Asker interface {
	Ask(ctx context.Context, req rag.AskRequest) (*rag.AskResponse, error)
}

var exitWords = map[string]bool{
	"exit":  true,
	"quit":  true,
	"sair":  true,
	"salir": true,
}

// Session is the interactive question loop. Questions run one at a time.
type Session struct {
	asker      Asker
	in         io.Reader
	out        io.Writer
	interrupts <-chan os.Signal
	timeout    time.Duration

	label lipgloss.Style
	dim   lipgloss.Style
	warn  lipgloss.Style
}

func NewSession(asker Asker, in io.Reader, out io.Writer, interrupts <-chan os.Signal, timeout time.Duration) *Session {
	r := lipgloss.NewRenderer(out)
	return &Session{
		asker:      asker,
		in:         in,
		out:        out,
		interrupts: interrupts,
		timeout:    timeout,
		label:      r.NewStyle().Bold(true),
		dim:        r.NewStyle().Faint(true),
		warn:       r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Run reads questions until an exit word, end of input, cancellation of ctx,
// or an interrupt while no question is in flight.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Starting chat...")
	fmt.Fprintf(s.out, "Type %s to quit.\n\n", s.label.Render("exit"))

	lines := make(chan string)
	scanErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		sc := bufio.NewScanner(s.in)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-stop:
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	for {
		fmt.Fprint(s.out, s.label.Render("QUESTION:")+" ")

		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out, "\nEnding chat...")
			return nil
		case <-s.interrupts:
			fmt.Fprintln(s.out, "\n\nEnding chat...")
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				return <-scanErr
			}
			q := strings.TrimSpace(line)
			if q == "" {
				continue
			}
			if exitWords[strings.ToLower(q)] {
				fmt.Fprintln(s.out, "Ending chat...")
				return nil
			}
			s.ask(ctx, q)
		}
	}
}

// ask answers one question. An interrupt cancels only this question.
func (s *Session) ask(ctx context.Context, q string) {
	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var interrupted atomic.Bool
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.interrupts:
			interrupted.Store(true)
			cancel()
		case <-done:
		}
	}()

	resp, err := s.asker.Ask(qctx, rag.AskRequest{Question: q})
	switch {
	case err != nil && interrupted.Load():
		fmt.Fprintln(s.out, s.warn.Render("question cancelled"))
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintln(s.out, s.warn.Render(fmt.Sprintf("error processing question: timed out after %s", s.timeout)))
	case err != nil:
		fmt.Fprintln(s.out, s.warn.Render("error processing question: "+err.Error()))
	default:
		fmt.Fprintf(s.out, "%s %s\n\n", s.label.Render("ANSWER:"), resp.Answer)
	}
	fmt.Fprintln(s.out, s.dim.Render("---"))
	fmt.Fprintln(s.out)
}
