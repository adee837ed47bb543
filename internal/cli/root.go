// Package cli wires configuration, storage and providers into the pdfrag commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/josinaldojr/pdfrag/internal/config"
	"github.com/josinaldojr/pdfrag/internal/db"
	"github.com/josinaldojr/pdfrag/internal/llm"
	"github.com/josinaldojr/pdfrag/internal/rag"
)

type app struct {
	envFile    string
	configFile string
	verbose    bool

	cfg *config.Config
	out io.Writer
	in  io.Reader
}

// NewRootCmd builds the pdfrag command tree.
func NewRootCmd() *cobra.Command {
	a := &app{out: os.Stdout, in: os.Stdin}

	root := &cobra.Command{
		Use:           "pdfrag",
		Short:         "Answer questions strictly from an ingested PDF",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.envFile, a.configFile)
			if err != nil {
				return err
			}
			if a.verbose {
				cfg.Verbose = true
			}
			a.cfg = cfg
			a.out = cmd.OutOrStdout()
			a.in = cmd.InOrStdin()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load")
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "optional YAML config file (also RAG_CONFIG_FILE)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log retrieval and prompt details")

	root.AddCommand(a.ingestCmd(), a.chatCmd(), a.serveCmd())
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	log.SetFlags(log.LstdFlags)
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// queryStack holds everything the query flow needs; close releases the pool.
type queryStack struct {
	service *rag.Service
	close   func()
}

func (a *app) buildQueryStack(ctx context.Context) (*queryStack, error) {
	cfg := a.cfg
	if err := cfg.RequireQuery(); err != nil {
		return nil, err
	}

	client, err := llm.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	repo := rag.NewPgRepository(pool)
	retriever := rag.NewRetriever(client, repo, cfg.Collection, cfg.TopK)
	retriever.SetVerbose(cfg.Verbose)
	composer := rag.NewComposer(client,
		rag.WithLanguage(cfg.PromptLanguage),
		rag.WithRefusal(cfg.RefusalSentence),
		rag.WithVerbose(cfg.Verbose),
	)

	return &queryStack{
		service: rag.NewService(retriever, composer),
		close:   pool.Close,
	}, nil
}
