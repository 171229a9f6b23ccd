package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/digital-twin/internal/logging"
	"github.com/danielpatrickdp/digital-twin/internal/state"
)

var (
	inspectLast    int
	inspectVersion string
	inspectLog     bool
	inspectJSON    bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List persisted twin versions or show one",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadRuntime()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		switch {
		case inspectVersion != "":
			return runDetailMode(out, store, inspectVersion)
		case inspectLog:
			return runLogMode(out, store, inspectLast, inspectJSON)
		default:
			return runListMode(out, store, inspectLast, inspectJSON)
		}
	},
}

func init() {
	f := inspectCmd.Flags()
	f.IntVar(&inspectLast, "last", 20, "show N most recent rows")
	f.StringVar(&inspectVersion, "version", "", "print one version's full state")
	f.BoolVar(&inspectLog, "log", false, "show the interaction log instead of versions")
	f.BoolVar(&inspectJSON, "json", false, "output as JSON instead of a table")
	rootCmd.AddCommand(inspectCmd)
}

// #region list-mode
type listRow struct {
	VersionID    string `json:"version_id"`
	ParentID     string `json:"parent_id,omitempty"`
	Reason       string `json:"reason"`
	Interactions int    `json:"interactions"`
	Successful   int    `json:"successful"`
	LastInput    string `json:"last_input,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func runListMode(out io.Writer, store *state.Store, last int, jsonOut bool) error {
	versions, err := store.ListVersions(last)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(out, "no versions found")
		return nil
	}

	rows := make([]listRow, len(versions))
	for i, v := range versions {
		rows[i] = listRow{
			VersionID:    v.VersionID,
			ParentID:     v.ParentID,
			Reason:       v.Reason,
			Interactions: v.State.PerformanceMetrics.TotalInteractions,
			Successful:   v.State.PerformanceMetrics.SuccessfulInteractions,
			LastInput:    v.State.CurrentInput,
			CreatedAt:    v.CreatedAt.Format(time.RFC3339),
		}
	}
	if jsonOut {
		return writeJSON(out, rows)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tREASON\tTURNS\tOK\tCREATED\tLAST INPUT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			shortID(r.VersionID), r.Reason, r.Interactions, r.Successful, r.CreatedAt, truncate(r.LastInput, 40))
	}
	return tw.Flush()
}
// #endregion list-mode

// #region detail-mode
func runDetailMode(out io.Writer, store *state.Store, versionID string) error {
	rec, err := store.GetVersion(versionID)
	if err != nil {
		return err
	}
	return writeJSON(out, rec)
}
// #endregion detail-mode

// #region log-mode
func runLogMode(out io.Writer, store *state.Store, last int, jsonOut bool) error {
	entries, err := logging.ListInteractions(store.DB(), last)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "no interactions logged")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TURN\tRULE\tOUTCOME\tREWARD\tINPUT\tOUTPUT")
	for _, e := range entries {
		reward := "-"
		if e.Reward != nil {
			reward = fmt.Sprint(*e.Reward)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(e.TurnID), e.RuleName, e.Outcome, reward, truncate(e.Input, 30), truncate(e.Output, 40))
	}
	return tw.Flush()
}
// #endregion log-mode

// #region helpers
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
// #endregion helpers
