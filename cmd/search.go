package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conceptclarity/clarity/internal/gateway"
	"github.com/conceptclarity/clarity/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Explain a term",
	Long: "Explain a term at the chosen level. Signed-out lookups are limited and " +
		"always use the easy level.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := strings.Join(args, " ")
		levelFlag, _ := cmd.Flags().GetString("level")
		level, err := gateway.ParseLevel(levelFlag)
		if err != nil {
			return err
		}
		lang, _ := cmd.Flags().GetString("language")
		media, _ := cmd.Flags().GetBool("media")

		return withClient(cmd, func(ctx context.Context, c *client) error {
			if lang == "" {
				sess, err := c.tokens.Session(ctx)
				if err != nil {
					return err
				}
				lang = sessionLanguage(sess)
			}
			ctl := search.NewController(c.gw, c.tokens,
				search.WithAnonymousLimit(cfg.Client.AnonymousSearchLimit),
				search.WithLogger(c.logger))

			res, err := ctl.Search(ctx, term, level, lang)
			var quota *gateway.QuotaExceeded
			if errors.As(err, &quota) {
				return fmt.Errorf("free searches used up, run `clarity login` to continue")
			}
			if err != nil {
				return explain(err, "")
			}
			printResult(res)

			if media {
				m, err := ctl.FetchMedia(res)(ctx)
				switch {
				case err != nil:
					fmt.Printf("\nNo image available: %v\n", err)
				case m.ImageURL != "":
					fmt.Printf("\nImage: %s\n", m.ImageURL)
				}
			}
			return nil
		})
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <history-id> up|down|clear",
	Short: "Rate an explanation from your history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid history id %q", args[0])
		}
		var value int
		switch args[1] {
		case "up", "+1", "1":
			value = 1
		case "down", "-1":
			value = -1
		case "clear", "0":
			value = 0
		default:
			return fmt.Errorf("feedback must be up, down or clear")
		}
		return withClient(cmd, func(ctx context.Context, c *client) error {
			if err := c.gw.SubmitFeedback(ctx, id, value); err != nil {
				return explain(err, "")
			}
			fmt.Println("Thanks for the feedback.")
			return nil
		})
	},
}

func init() {
	searchCmd.Flags().StringP("level", "l", "easy", "Explanation level: easy, medium or hard")
	searchCmd.Flags().String("language", "", "Content language: en, te or hi (default: stored preference)")
	searchCmd.Flags().Bool("media", false, "Also look up an illustration")
}

func printResult(res *search.Result) {
	fmt.Printf("%s  (%s)\n", res.Term, res.Level)
	fmt.Println(strings.Repeat("─", 60))
	fmt.Println(res.Definition)

	if len(res.Examples) > 0 {
		fmt.Println()
		fmt.Println("Examples")
		for _, ex := range res.Examples {
			fmt.Printf("  • %s\n", ex)
		}
	}
	if len(res.RelatedWords) > 0 {
		fmt.Println()
		fmt.Printf("Related: %s\n", strings.Join(res.RelatedWords, ", "))
	}
	if res.HistoryID != nil {
		fmt.Printf("\nSaved to history as #%d. Rate it with `clarity feedback %d up`.\n", *res.HistoryID, *res.HistoryID)
	}
}
