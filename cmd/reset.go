package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conceptclarity/clarity/internal/store"
	"github.com/conceptclarity/clarity/internal/tokenstore"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget stored tokens and preferences",
	Long: "Clear the user and administrator tokens and the language and theme " +
		"preferences kept on this machine. Backend data is not touched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, s *store.Store) error {
			kv := s.KV()
			for _, key := range []string{
				tokenstore.KeyToken,
				tokenstore.KeyAdminToken,
				tokenstore.KeyLanguage,
				tokenstore.KeyTheme,
			} {
				if err := kv.Clear(ctx, key); err != nil {
					return fmt.Errorf("clear %s: %w", key, err)
				}
			}
			fmt.Println("Local session and preferences cleared.")
			return nil
		})
	},
}
