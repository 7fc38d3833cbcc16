package cli

import (
	"github.com/phrazzld/ephemeraldb/testdb"
	"github.com/spf13/cobra"
)

type sweepResult struct {
	DryRun  bool     `json:"dry_run"`
	Dropped []string `json:"dropped"`
}

func newSweepCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Drop ephemeral databases left behind by exited processes",
		Long: `Drop every ephemeral database older than --older-than.

Age is read from the comment each database is tagged with when created.
Databases without that comment are never swept. Databases that still have
sessions attached are skipped unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSweep(cmd, force)
		},
	}

	cmd.Flags().String("prefix", "", "Name prefix to sweep (default test_)")
	cmd.Flags().Duration("older-than", 0, "Minimum age of databases to drop (default 1h)")
	cmd.Flags().Bool("dry-run", false, "Report what would be dropped without dropping")
	cmd.Flags().BoolVar(&force, "force", false, "Also drop stale databases that still have sessions attached")
	return cmd
}

func (a *app) runSweep(cmd *cobra.Command, force bool) error {
	opts, err := a.cfg.SweepOptions(a.logger)
	if err != nil {
		return err
	}
	if force {
		opts.Force = true
	}
	if !a.serverConfigured() {
		return ErrInvalidArgsWithSuggestion(SuggestSetDatabaseURL, "no database server configured")
	}

	dropped, sweepErr := testdb.Sweep(cmd.Context(), opts)

	result := sweepResult{DryRun: opts.DryRun, Dropped: dropped}
	if result.Dropped == nil {
		result.Dropped = []string{}
	}
	if a.jsonOut {
		if err := a.outputJSON(result); err != nil {
			return err
		}
		return sweepErr
	}

	verb := "Dropped"
	if opts.DryRun {
		verb = "Would drop"
	}
	for _, name := range dropped {
		a.outputLine("%s %s", verb, name)
	}
	if len(dropped) == 0 && sweepErr == nil {
		a.outputLine("Nothing to sweep")
	}
	return sweepErr
}
