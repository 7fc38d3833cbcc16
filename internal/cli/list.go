package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/phrazzld/ephemeraldb/testdb"
	"github.com/spf13/cobra"
)

type listEntry struct {
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	Age       string     `json:"age,omitempty"`
	Sessions  int64      `json:"sessions"`
}

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ephemeral databases on the server",
		Args:  cobra.NoArgs,
		RunE:  a.runList,
	}

	cmd.Flags().String("prefix", "", "Name prefix to list (default test_)")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, args []string) error {
	opts, err := a.cfg.SweepOptions(a.logger)
	if err != nil {
		return err
	}
	if !a.serverConfigured() {
		return ErrInvalidArgsWithSuggestion(SuggestSetDatabaseURL, "no database server configured")
	}

	databases, err := testdb.ListEphemeral(cmd.Context(), opts)
	if err != nil {
		return err
	}

	entries := toListEntries(databases, time.Now())
	if a.jsonOut {
		return a.outputJSON(entries)
	}

	if len(entries) == 0 {
		a.outputLine("No ephemeral databases found")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAGE\tSESSIONS")
	for _, e := range entries {
		age := e.Age
		if age == "" {
			age = "unknown"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", e.Name, age, e.Sessions)
	}
	return w.Flush()
}

func toListEntries(databases []testdb.Database, now time.Time) []listEntry {
	entries := make([]listEntry, 0, len(databases))
	for _, d := range databases {
		entry := listEntry{Name: d.Name, Sessions: d.Sessions}
		if !d.CreatedAt.IsZero() {
			created := d.CreatedAt
			entry.CreatedAt = &created
			entry.Age = d.Age(now).Round(time.Second).String()
		}
		entries = append(entries, entry)
	}
	return entries
}
