package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conceptclarity/clarity/internal/gateway"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrator commands",
}

var adminLoginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Sign in as administrator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *client) error {
			if err := c.shell.AdminLogin(ctx, gateway.Credentials{Identifier: args[0], Password: password}); err != nil {
				return explain(err, "Incorrect credentials. Please try again.")
			}
			fmt.Println("Signed in as administrator.")
			return nil
		})
	},
}

var adminLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the administrator token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client) error {
			if err := c.shell.AdminLogout(ctx); err != nil {
				return err
			}
			fmt.Println("Administrator signed out.")
			return nil
		})
	},
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show member, review and search statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := statsFilterFlags(cmd)
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *client) error {
			st, err := c.gw.AdminStats(ctx, filter)
			if err != nil {
				return explain(err, "")
			}
			fmt.Printf("Members:         %d\n", st.TotalMembers)
			fmt.Printf("Reviews:         %d\n", st.TotalReviews)
			fmt.Printf("Average rating:  %.1f\n", st.AverageRating)

			if len(st.MostSearchedWords) > 0 {
				fmt.Println()
				fmt.Println("Most searched")
				fmt.Println(strings.Repeat("─", 40))
				top := st.MostSearchedWords[0].Count
				for _, w := range st.MostSearchedWords {
					bar := 0
					if top > 0 {
						bar = w.Count * 20 / top
					}
					fmt.Printf("%-16s %4d  %s\n", truncate(w.Word, 16), w.Count, strings.Repeat("█", bar))
				}
			}
			return nil
		})
	},
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List members and their reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client) error {
			users, err := c.gw.AdminUsers(ctx)
			if err != nil {
				return explain(err, "")
			}
			if len(users) == 0 {
				fmt.Println("No members yet.")
				return nil
			}
			fmt.Printf("%-5s  %-20s  %-28s  %-16s  %s\n", "ID", "Username", "Email", "Role", "Reviews")
			fmt.Println(strings.Repeat("─", 84))
			for _, u := range users {
				fmt.Printf("%-5d  %-20s  %-28s  %-16s  %d\n",
					u.ID, truncate(u.Username, 20), truncate(u.Email, 28), u.Role, len(u.Reviews))
				for _, rv := range u.Reviews {
					fmt.Printf("       %s %s  %s\n", stars(rv.Rating), rv.Date.Local().Format("2006-01-02"), truncate(rv.Comment, 50))
				}
			}
			return nil
		})
	},
}

func init() {
	adminStatsCmd.Flags().String("since", "", "Only count activity on or after this date (YYYY-MM-DD)")
	adminStatsCmd.Flags().String("until", "", "Only count activity before this date (YYYY-MM-DD)")

	adminCmd.AddCommand(adminLoginCmd)
	adminCmd.AddCommand(adminLogoutCmd)
	adminCmd.AddCommand(adminStatsCmd)
	adminCmd.AddCommand(adminUsersCmd)
}

func statsFilterFlags(cmd *cobra.Command) (gateway.AdminStatsFilter, error) {
	var f gateway.AdminStatsFilter
	for name, dst := range map[string]*time.Time{"since": &f.Since, "until": &f.Until} {
		raw, _ := cmd.Flags().GetString(name)
		if raw == "" {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return f, fmt.Errorf("--%s must be a date like 2026-01-31", name)
		}
		*dst = t
	}
	return f, nil
}
