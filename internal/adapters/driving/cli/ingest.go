package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
)

var (
	ingestFormat string
	ingestJSON   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Add documents to a collection",
	Long: `Extracts text from each file, splits it into chunks and embeds them.

Supported formats: pdf, text, markdown, html, docx. The format is detected
from the file name and contents unless --format is given. Ingesting a file
with the same name again replaces the previous copy.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFormat, "format", "f", "", "declared format (pdf, text, markdown, html, docx)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, session, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer p.Sessions.Destroy(context.WithoutCancel(ctx), session.ID, false) //nolint:errcheck

	var (
		results []*driving.IngestResult
		errs    []error
	)
	for _, path := range args {
		res, err := ingestFile(ctx, p.Study, session, path, filepath.Base(path), domain.Format(ingestFormat))
		if err != nil {
			errs = append(errs, err)
			if !ingestJSON {
				cmd.PrintErrln(styles.Error.Render("✗ " + err.Error()))
			}
			continue
		}
		results = append(results, res)
		if !ingestJSON {
			cmd.Printf("%s %s: %d pages, %d chunks %s\n",
				styles.Success.Render("✓"), res.Name, res.Pages, res.Chunks,
				styles.Muted.Render("("+res.DocumentID+")"))
		}
	}

	if ingestJSON {
		if err := outputIngestJSON(cmd, results); err != nil {
			return err
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d documents failed: %w", len(errs), len(args), errors.Join(errs...))
	}
	return nil
}

// ingestFile reads a file and ingests it under its base name.
func ingestFile(
	ctx context.Context, study driving.StudyService, session *domain.Session, path, name string, format domain.Format,
) (*driving.IngestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return study.Ingest(ctx, session, driving.IngestRequest{
		Name:   name,
		Data:   data,
		Format: format,
	})
}

type ingestOutput struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Format     string `json:"format"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
}

func outputIngestJSON(cmd *cobra.Command, results []*driving.IngestResult) error {
	out := make([]ingestOutput, len(results))
	for i, r := range results {
		out[i] = ingestOutput{
			DocumentID: r.DocumentID,
			Name:       r.Name,
			Format:     r.Format.String(),
			Pages:      r.Pages,
			Chunks:     r.Chunks,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
