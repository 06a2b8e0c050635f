package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conceptclarity/clarity/internal/gateway"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Show or submit your review of the app",
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, _ := cmd.Flags().GetInt("rating")
		comment, _ := cmd.Flags().GetString("comment")

		return withClient(cmd, func(ctx context.Context, c *client) error {
			if rating == 0 {
				return showReview(ctx, c)
			}
			form := gateway.ReviewForm{Rating: rating, Comment: strings.TrimSpace(comment)}
			if err := gateway.Validate(form); err != nil {
				return explain(err, "")
			}
			if err := c.gw.SubmitReview(ctx, form); err != nil {
				return explain(err, "")
			}
			fmt.Println("Thanks for your review!")
			return nil
		})
	},
}

func init() {
	reviewCmd.Flags().IntP("rating", "r", 0, "Rating from 1 to 5 (omit to show your review)")
	reviewCmd.Flags().StringP("comment", "m", "", "Optional comment")
}

func showReview(ctx context.Context, c *client) error {
	rv, err := c.gw.MyReview(ctx)
	var terr *gateway.TransportError
	if errors.As(err, &terr) && terr.Status == http.StatusNotFound {
		fmt.Println("You have not reviewed ConceptClarity yet. Use --rating to add one.")
		return nil
	}
	if err != nil {
		return explain(err, "")
	}
	fmt.Printf("%s  (%d/5)\n", stars(rv.Rating), rv.Rating)
	if rv.Comment != "" {
		fmt.Println(rv.Comment)
	}
	fmt.Printf("Submitted %s\n", rv.CreatedAt.Local().Format("2006-01-02"))
	return nil
}

func stars(n int) string {
	n = max(0, min(5, n))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}
