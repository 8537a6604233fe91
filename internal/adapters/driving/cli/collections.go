package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var collectionsCmd = &cobra.Command{
	Use:     "collections",
	Aliases: []string{"collection"},
	Short:   "Manage named collections",
	Long: `Collections keep separate sets of documents, for example one per course.
Names are stored with the "studymate_" prefix; either form is accepted.`,
	RunE: runCollectionsList,
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	Args:  cobra.NoArgs,
	RunE:  runCollectionsList,
}

var collectionsDropCmd = &cobra.Command{
	Use:   "drop <name>",
	Short: "Delete a collection and everything in it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsDrop,
}

func init() {
	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsDropCmd)
	rootCmd.AddCommand(collectionsCmd)
}

func runCollectionsList(cmd *cobra.Command, _ []string) error {
	p, err := requirePipeline(cmd.Context())
	if err != nil {
		return err
	}

	infos, err := p.Collections.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		cmd.Println("No collections yet.")
		return nil
	}

	current := collectionName()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDOCUMENTS\tPASSAGES\t")
	for _, info := range infos {
		marker := ""
		if info.Name == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", info.Name, info.Documents, info.Records, marker)
	}
	return w.Flush()
}

func runCollectionsDrop(cmd *cobra.Command, args []string) error {
	p, err := requirePipeline(cmd.Context())
	if err != nil {
		return err
	}
	if err := p.Collections.Drop(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("%s Dropped %s\n", styles.Success.Render("✓"), args[0])
	return nil
}
