package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"highlight-extractor/internal/database"
	"highlight-extractor/internal/embedding"
	"highlight-extractor/internal/llm"
	"highlight-extractor/internal/models"

	"github.com/spf13/cobra"
)

// searcher answers questions against the highlight index
type searcher struct {
	db       *database.DB
	embedder *embedding.OllamaEmbedder
	model    *llm.OllamaLLM
	limit    int
	text     bool
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		s           searcher
		answer      bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Search indexed highlights",
		Long: `Find the indexed highlights closest in meaning to question, using the same
embedding model as index --embed. With --text, highlights are matched by
substring instead and no model is needed. With --answer, the Ollama model
ollama.model answers the question from the matching highlights.

In interactive mode (-i) questions are read line by line. /text toggles
substring matching, /documents lists the indexed documents and exit quits.

Examples:
  highlights query "how does appraisal shape emotion"
  highlights query --text reappraisal
  highlights query --answer --limit 8 "what reduces negative affect"
  highlights query -i --answer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !interactive && len(args) == 0 {
				return fmt.Errorf("a question is required unless -i is given")
			}
			ctx := cmd.Context()

			db, err := database.NewDB(ctx, a.cfg.Postgres.URL.Value())
			if err != nil {
				return err
			}
			defer db.Close()
			s.db = db

			s.embedder, err = newEmbedder(a)
			if err != nil {
				return err
			}
			if answer {
				s.model, err = llm.NewOllamaLLM(a.cfg.Ollama.Host, a.cfg.Ollama.Model)
				if err != nil {
					return err
				}
			}

			if interactive {
				return s.interactive(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			}

			out, err := s.ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&s.limit, "limit", "n", 5, "maximum number of highlights")
	cmd.Flags().BoolVar(&s.text, "text", false, "match by substring instead of embedding similarity")
	cmd.Flags().BoolVar(&answer, "answer", false, "answer the question from the matching highlights")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "read questions from stdin")
	return cmd
}

// ask returns the matching highlights, preceded by the model's answer when
// a model is set
func (s *searcher) ask(ctx context.Context, question string) (string, error) {
	var (
		found []models.IndexedHighlight
		err   error
	)
	if s.text {
		found, err = s.db.SearchText(ctx, question, s.limit)
	} else {
		var vec []float64
		vec, err = s.embedder.EmbedText(ctx, question)
		if err != nil {
			return "", err
		}
		found, err = s.db.QuerySimilar(ctx, vec, s.limit)
	}
	if err != nil {
		return "", err
	}

	if len(found) == 0 || s.model == nil {
		return formatHighlights(found), nil
	}

	answer, err := s.model.Answer(ctx, question, found)
	if err != nil {
		return "", err
	}
	return formatAnswer(answer), nil
}

func (s *searcher) interactive(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Ask questions about your highlights (type 'exit' to quit)")

	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/text":
			s.text = !s.text
			fmt.Fprintf(out, "Substring matching: %v\n", s.text)
			continue
		case "/documents":
			docs, err := s.db.Documents(ctx)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprint(out, formatDocuments(docs))
			continue
		}

		result, err := s.ask(ctx, input)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprint(out, result)
	}
	return scanner.Err()
}

func formatHighlights(highlights []models.IndexedHighlight) string {
	if len(highlights) == 0 {
		return "No matching highlights.\n"
	}

	var sb strings.Builder
	for _, h := range highlights {
		fmt.Fprintf(&sb, "[%s p.%d] %s\n", filepath.Base(h.Document), h.Highlight.Page, h.Highlight.Text)
	}
	return sb.String()
}

func formatAnswer(answer *models.Answer) string {
	var sb strings.Builder

	sb.WriteString(answer.Text)
	sb.WriteString("\n\n")

	if len(answer.Sources) > 0 {
		sb.WriteString("Sources:\n")
		for i, source := range answer.Sources {
			fmt.Fprintf(&sb, "  %d. [%s, Page: %d] %s\n",
				i+1, filepath.Base(source.Document), source.Highlight.Page, source.Highlight.Text)
		}
	}

	return sb.String()
}

func formatDocuments(docs map[string]int) string {
	if len(docs) == 0 {
		return "No documents indexed.\n"
	}

	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Indexed documents:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "  %s (%d highlights)\n", name, docs[name])
	}
	return sb.String()
}
