package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studymate/internal/connectors/filesystem"
	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driving"
	"github.com/custodia-labs/studymate/internal/logger"
)

var watchSkipExisting bool

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Keep a folder of notes ingested",
	Long: `Ingests every file in a folder, then watches it. Saved files are
re-ingested and deleted files are removed from the collection. Files the
loaders cannot read are reported and skipped. Press Ctrl-C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSkipExisting, "skip-existing", false, "do not ingest files already in the folder")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, session, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer p.Sessions.Destroy(context.WithoutCancel(ctx), session.ID, false) //nolint:errcheck

	w := filesystem.New(args[0])
	defer w.Close()

	if !watchSkipExisting {
		files, err := w.Scan(ctx)
		if err != nil {
			return err
		}
		for _, path := range files {
			applyChange(cmd, p.Study, session, w, filesystem.Change{Type: filesystem.ChangeCreated, Path: path})
		}
	}

	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Println(styles.Muted.Render(fmt.Sprintf("Watching %s for changes into %s", args[0], session.Collection)))

	for change := range changes {
		applyChange(cmd, p.Study, session, w, change)
	}
	return nil
}

// applyChange ingests or removes one file, named by its path under the
// watched folder. Failures are reported, never fatal.
func applyChange(
	cmd *cobra.Command, study driving.StudyService, session *domain.Session, w *filesystem.Watcher, change filesystem.Change,
) {
	ctx := cmd.Context()
	name := w.Name(change.Path)

	if change.Type == filesystem.ChangeDeleted {
		err := study.RemoveDocument(ctx, session, domain.DocumentID(session.Collection, name))
		switch {
		case errors.Is(err, domain.ErrNotFound):
			logger.Debug("%s was not ingested", name)
		case err != nil:
			cmd.PrintErrln(styles.Error.Render("✗ " + err.Error()))
		default:
			cmd.Printf("%s removed %s\n", styles.Warning.Render("-"), name)
		}
		return
	}

	res, err := ingestFile(ctx, study, session, change.Path, name, "")
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		logger.Debug("skipping %s: %v", name, err)
	case err != nil:
		cmd.PrintErrln(styles.Error.Render("✗ " + err.Error()))
	default:
		cmd.Printf("%s %s %s: %d pages, %d chunks\n",
			styles.Success.Render("✓"), change.Type, res.Name, res.Pages, res.Chunks)
	}
}
