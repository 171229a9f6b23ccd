package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/digital-twin/internal/logging"
	"github.com/danielpatrickdp/digital-twin/internal/replay"
	"github.com/danielpatrickdp/digital-twin/internal/state"
)

var (
	exportOut  string
	exportLast int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the most recent logged interactions as a replay fixture",
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

		entries, err := logging.ListInteractions(store.DB(), exportLast)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("no interactions logged in %s", cfg.DBPath)
		}
		logged := len(entries)
		entries, err = replay.ContiguousTail(entries, func(id string) (string, error) {
			rec, err := store.GetVersion(id)
			if err != nil {
				return "", err
			}
			return rec.ParentID, nil
		})
		if err != nil {
			return err
		}
		if dropped := logged - len(entries); dropped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "skipped %d turns before the last configure or reset\n", dropped)
		}

		start, err := startStateFor(store, entries[0])
		if err != nil {
			return err
		}
		f := replay.FromLog(
			fmt.Sprintf("Session export: %d turns from %s", len(entries), cfg.DBPath),
			start, entries)
		if err := replay.WriteFixture(f, exportOut); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d turns to %s\n", len(entries), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output fixture JSON path")
	exportCmd.Flags().IntVar(&exportLast, "last", 4, "number of most recent interactions to export")
	exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

// startStateFor returns the state the first exported turn ran against: the
// parent of the version that turn produced, or the built-in default.
func startStateFor(store *state.Store, first logging.InteractionEntry) (state.TwinState, error) {
	if first.VersionID == "" {
		return state.Default(), nil
	}
	rec, err := store.GetVersion(first.VersionID)
	if err != nil {
		return state.TwinState{}, err
	}
	if rec.ParentID == "" {
		return state.Default(), nil
	}
	parent, err := store.GetVersion(rec.ParentID)
	if err != nil {
		return state.TwinState{}, err
	}
	return parent.State, nil
}
