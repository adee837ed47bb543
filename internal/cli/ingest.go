package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/josinaldojr/pdfrag/internal/db"
	"github.com/josinaldojr/pdfrag/internal/llm"
	"github.com/josinaldojr/pdfrag/internal/loader"
	"github.com/josinaldojr/pdfrag/internal/rag"
)

func (a *app) ingestCmd() *cobra.Command {
	var (
		pdfPath  string
		appendTo bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the PDF, split it into chunks and store their embeddings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			if pdfPath != "" {
				cfg.PDFPath = pdfPath
			}
			if err := cfg.RequireIngest(); err != nil {
				return err
			}

			chunker, err := rag.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
			if err != nil {
				return err
			}
			client, err := llm.New(ctx, cfg)
			if err != nil {
				return err
			}

			log.Printf("loading document %s", cfg.PDFPath)
			doc, err := loader.Load(cfg.PDFPath)
			if err != nil {
				return err
			}
			log.Printf("document loaded: %d page(s)", len(doc.Pages))

			pool, err := db.NewPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			log.Printf("embedding with %s, storing into collection %q", client.ModelName(), cfg.Collection)
			ingestor := rag.NewIngestor(chunker, client, rag.NewPgRepository(pool), cfg.Collection)
			report, err := ingestor.Ingest(ctx, doc, !appendTo)
			if err != nil {
				return fmt.Errorf("ingestion failed: %w", err)
			}

			fmt.Fprintf(a.out, "Ingestion finished.\n%d chunks processed, %d stored\nCollection: %s\n",
				report.Chunks, report.Stored, report.Collection)
			return nil
		},
	}

	cmd.Flags().StringVar(&pdfPath, "pdf", "", "document to ingest (overrides PDF_PATH)")
	cmd.Flags().BoolVar(&appendTo, "append", false, "add to the collection instead of recreating it")
	return cmd
}
