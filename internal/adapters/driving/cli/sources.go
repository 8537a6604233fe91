package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

var sourcesJSON bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List documents in the collection",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

var removeCmd = &cobra.Command{
	Use:   "remove <document-id>",
	Short: "Remove a document and its passages",
	Long: `Deletes a document from the collection. Its passages stop appearing in
answers immediately. Use 'studymate sources' to find document IDs.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesJSON, "json", false, "output sources as JSON")
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(removeCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	p, session, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer p.Sessions.Destroy(context.WithoutCancel(ctx), session.ID, false) //nolint:errcheck

	sources, err := p.Study.ListSources(ctx, session)
	if err != nil {
		return err
	}

	if sourcesJSON {
		return outputSourcesJSON(cmd, sources)
	}

	if len(sources) == 0 {
		cmd.Printf("No documents in %s. Add some with 'studymate ingest <file>'.\n", session.Collection)
		return nil
	}

	cmd.Println(styles.Title.Render(session.Collection))
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFORMAT\tPAGES\tCHUNKS\tINGESTED")
	for _, s := range sources {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			s.DocumentID, s.Name, s.Format, s.Pages, s.Chunks, s.IngestedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

type sourceInfoOutput struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Format     string `json:"format"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
	IngestedAt string `json:"ingested_at"`
}

func toSourceInfoOutput(sources []domain.SourceInfo) []sourceInfoOutput {
	out := make([]sourceInfoOutput, len(sources))
	for i, s := range sources {
		out[i] = sourceInfoOutput{
			DocumentID: s.DocumentID,
			Name:       s.Name,
			Format:     s.Format.String(),
			Pages:      s.Pages,
			Chunks:     s.Chunks,
			IngestedAt: s.IngestedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	}
	return out
}

func outputSourcesJSON(cmd *cobra.Command, sources []domain.SourceInfo) error {
	data, err := json.MarshalIndent(toSourceInfoOutput(sources), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, session, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer p.Sessions.Destroy(context.WithoutCancel(ctx), session.ID, false) //nolint:errcheck

	if err := p.Study.RemoveDocument(ctx, session, args[0]); err != nil {
		return err
	}
	cmd.Printf("%s Removed %s\n", styles.Success.Render("✓"), args[0])
	return nil
}
