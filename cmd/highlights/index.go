package main

import (
	"highlight-extractor/internal/batch"
	"highlight-extractor/internal/database"
	"highlight-extractor/internal/embedding"
	"highlight-extractor/internal/index"

	"github.com/spf13/cobra"
)

func newIndexCmd(a *app) *cobra.Command {
	var embed bool

	cmd := &cobra.Command{
		Use:   "index <input-dir>",
		Short: "Store the highlights of a directory of PDFs in Postgres",
		Long: `Extract highlights from every PDF in input-dir and store them in the
highlights table of the database at postgres.url. Re-indexing a document
replaces its earlier rows. With --embed each highlight is embedded with the
Ollama model ollama.embedding_model so that query can search by meaning;
the database then needs the pgvector extension.

Examples:
  highlights index ~/papers
  HIGHLIGHTS_POSTGRES_URL=postgres://localhost/notes highlights index --embed ~/papers`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := database.NewDB(ctx, a.cfg.Postgres.URL.Value())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Initialize(ctx, embed); err != nil {
				return err
			}

			var embedder index.Embedder
			if embed {
				e, err := newEmbedder(a)
				if err != nil {
					return err
				}
				embedder = e
			}

			runner := batch.NewRunner(a.logger, nil, 1, a.cfg.Batch.Suffix)
			report, err := index.New(runner, embedder, db, a.logger.Named("index")).Index(ctx, args[0])
			if err != nil {
				return err
			}

			printReport(cmd, report)
			return report.Err()
		},
	}

	cmd.Flags().BoolVar(&embed, "embed", false, "embed highlights with Ollama for similarity search")
	return cmd
}

func newEmbedder(a *app) (*embedding.OllamaEmbedder, error) {
	e, err := embedding.NewOllamaEmbedder(a.cfg.Ollama.Host, a.cfg.Ollama.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	e.MaxConcurrent = a.cfg.Ollama.MaxConcurrent
	e.Timeout = a.cfg.Ollama.Timeout.Duration()
	return e, nil
}
