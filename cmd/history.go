package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conceptclarity/clarity/internal/gateway"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List your past searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withClient(cmd, func(ctx context.Context, c *client) error {
			if err := c.requireUser(ctx); err != nil {
				return err
			}
			items, err := c.gw.History(ctx)
			if err != nil {
				return explain(err, "")
			}
			if len(items) == 0 {
				fmt.Println("No searches yet.")
				return nil
			}
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}

			fmt.Printf("%-6s  %-16s  %-24s  %-4s  %s\n", "ID", "When", "Query", "Fb", "Summary")
			fmt.Println(strings.Repeat("─", 100))
			for _, it := range items {
				fmt.Printf("%-6d  %-16s  %-24s  %-4s  %s\n",
					it.ID,
					it.CreatedAt.Local().Format("2006-01-02 15:04"),
					truncate(it.Query, 24),
					feedbackLabel(it.Feedback),
					truncate(it.Result, 40),
				)
			}
			return nil
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one history entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}
		return withClient(cmd, func(ctx context.Context, c *client) error {
			if err := c.gw.DeleteHistory(ctx, id); err != nil {
				return explain(err, "")
			}
			fmt.Printf("Deleted #%d.\n", id)
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all of your history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("this deletes every entry, pass --yes to confirm")
		}
		return withClient(cmd, func(ctx context.Context, c *client) error {
			if err := c.gw.ClearHistory(ctx); err != nil {
				return explain(err, "")
			}
			fmt.Println("History cleared.")
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries to show (0 for all)")
	historyClearCmd.Flags().Bool("yes", false, "Confirm clearing")

	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func feedbackLabel(fb *int) string {
	if fb == nil {
		return ""
	}
	switch *fb {
	case 1:
		return "👍"
	case -1:
		return "👎"
	}
	return ""
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// levelArg parses an optional level argument, defaulting to all levels.
func levelArg(args []string) (gateway.Level, error) {
	if len(args) == 0 {
		return "", nil
	}
	return gateway.ParseLevel(args[0])
}
