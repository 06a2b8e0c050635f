package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard [easy|medium|hard]",
	Short: "Show the top quiz scores",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := levelArg(args)
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *client) error {
			entries, err := c.gw.FetchLeaderboard(ctx, level)
			if err != nil {
				return explain(err, "")
			}
			if len(entries) == 0 {
				fmt.Println("No scores yet.")
				return nil
			}
			fmt.Printf("%-5s  %-24s  %s\n", "Rank", "User", "Score")
			fmt.Println(strings.Repeat("─", 44))
			for _, e := range entries {
				fmt.Printf("%-5d  %-24s  %d / %d\n", e.Rank, truncate(e.Username, 24), e.Score, e.TotalQuestions)
			}
			return nil
		})
	},
}
