package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/digital-twin/internal/twin"
	"github.com/danielpatrickdp/digital-twin/internal/update"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to a local twin",
	Long: `Start an interactive session. Each line is one interaction.

Session commands:
  :reward N   attach reward N to the next interaction
  :state      print the current twin state as JSON
  :reset      clear the operational state
  quit, exit  leave the session`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		ctrl, cleanup, err := buildController(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		st := ctrl.GetState()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s ready (%d rules).\n", st.Identity.Name, len(st.DecisionLogic.Rules))
		fmt.Fprintln(out, "Type a message (or 'quit' to exit):")
		return chatLoop(cmd.Context(), ctrl, cmd.InOrStdin(), out)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// #region chat-loop
func chatLoop(ctx context.Context, ctrl *twin.Controller, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	var pending *update.Feedback

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			return nil
		case strings.HasPrefix(line, ":reward"):
			r, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, ":reward")), 64)
			if err != nil {
				fmt.Fprintf(out, "usage: :reward N (%v)\n", err)
				continue
			}
			pending = &update.Feedback{Reward: r}
			fmt.Fprintf(out, "reward %s will be attached to the next message\n", strconv.FormatFloat(r, 'f', -1, 64))
			continue
		case line == ":state":
			data, err := json.MarshalIndent(ctrl.GetState(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal state: %w", err)
			}
			fmt.Fprintln(out, string(data))
			continue
		case line == ":reset":
			if _, err := ctrl.ResetOperationalState(); err != nil {
				fmt.Fprintf(out, "reset failed: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "operational state cleared")
			continue
		}

		res, err := ctrl.ProcessInteraction(ctx, line, pending)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		pending = nil

		pm := res.State.PerformanceMetrics
		fmt.Fprintf(out, "\n%s\n\n", res.Output)
		fmt.Fprintf(out, "[%s] rule=%s path=%s ok=%d/%d\n",
			shortID(res.TurnID), res.RuleName, strings.Join(res.State.LastDecisionPath, " > "),
			pm.SuccessfulInteractions, pm.TotalInteractions)
		for _, w := range res.Warnings {
			fmt.Fprintf(out, "  warning: %v\n", w)
		}
	}
	return scanner.Err()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
// #endregion chat-loop
