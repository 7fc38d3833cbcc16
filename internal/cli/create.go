package cli

import (
	"fmt"

	"github.com/phrazzld/ephemeraldb/testdb"
	"github.com/spf13/cobra"
)

type createResult struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func newCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a migrated database and print its connection string",
		Long: `Create a uniquely named database, apply migrations to it, and print its
connection string.

The database is not dropped when the command exits. Remove it with
"ephemeraldb drop <name>", or let "ephemeraldb sweep" reclaim it later.`,
		Args: cobra.NoArgs,
		RunE: a.runCreate,
	}

	cmd.Flags().String("migrations", "", "Directory of goose SQL migrations to apply")
	cmd.Flags().Duration("migration-timeout", 0, "Timeout for the whole migration run (default 5m)")
	cmd.Flags().String("prefix", "", "Name prefix for the new database (default test_)")
	return cmd
}

func (a *app) runCreate(cmd *cobra.Command, args []string) error {
	opts, err := a.cfg.TestDBOptions(a.logger)
	if err != nil {
		return err
	}
	if !a.serverConfigured() {
		return ErrInvalidArgsWithSuggestion(SuggestSetDatabaseURL, "no database server configured")
	}

	tdb, err := testdb.New(cmd.Context(), opts)
	if err != nil {
		return err
	}

	result := createResult{Name: tdb.Name(), URL: tdb.URL()}
	if a.jsonOut {
		return a.outputJSON(result)
	}
	if a.quiet {
		// Scripts capture the URL alone.
		fmt.Fprintln(a.out, result.URL)
		return nil
	}
	a.outputLine("Created %s", result.Name)
	a.outputLine("%s", result.URL)
	return nil
}
