package cli

import (
	"errors"
	"fmt"

	"github.com/phrazzld/ephemeraldb/internal/redact"
	"github.com/phrazzld/ephemeraldb/testdb"
	"github.com/spf13/cobra"
)

type dropResult struct {
	Dropped []string `json:"dropped"`
}

func newDropCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "drop <name>...",
		Short: "Terminate sessions on the named databases and drop them",
		Long: `Terminate every session attached to each named database and drop it.

Names that do not look like generated names (prefix followed by 32 hex
digits) are refused unless --force is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDrop(cmd, args, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Drop names that do not look generated")
	cmd.Flags().String("prefix", "", "Name prefix generated databases carry (default test_)")
	return cmd
}

func (a *app) runDrop(cmd *cobra.Command, args []string, force bool) error {
	if !force {
		for _, name := range args {
			if !testdb.IsEphemeralName(name, a.cfg.Sweep.Prefix) {
				return ErrInvalidArgsWithSuggestion(fmt.Sprintf(SuggestForceDrop, name),
					"%s is not a generated database name", name)
			}
		}
	}

	opts, err := a.cfg.TestDBOptions(a.logger)
	if err != nil {
		return err
	}
	if !a.serverConfigured() {
		return ErrInvalidArgsWithSuggestion(SuggestSetDatabaseURL, "no database server configured")
	}

	var (
		result dropResult
		errs   []error
	)
	for _, name := range args {
		if err := testdb.Reclaim(cmd.Context(), opts.ServerURL(), name, opts.Timeout); err != nil {
			a.logger.Error("failed to drop database", "database", name, "error", redact.Error(err))
			errs = append(errs, err)
			continue
		}
		a.logger.Info("database dropped", "database", name)
		result.Dropped = append(result.Dropped, name)
	}

	if a.jsonOut {
		if err := a.outputJSON(result); err != nil {
			return err
		}
	} else {
		for _, name := range result.Dropped {
			a.outputLine("Dropped %s", name)
		}
	}
	return errors.Join(errs...)
}
