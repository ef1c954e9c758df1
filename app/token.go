package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/daemon"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web"
)

func init() { //nolint: gochecknoinits
	tokenCmd.Flags().Uint64Var(&tokenUserID, "user", 0, "id of the account to issue the credential for")
	_ = tokenCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(tokenCmd)
}

var (
	tokenUserID uint64

	tokenCmd = &cobra.Command{
		Use:     "token",
		Short:   "Issue a credential for an account with the roles it holds right now",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := daemon.Open(&cfg)
			if err != nil {
				return err
			}

			deps, err := web.NewDeps(&cfg, db)
			if err != nil {
				return err
			}

			issued, err := deps.Identity.Issue(context.Background(), tokenUserID)
			if err != nil {
				return fmt.Errorf("user %d: %w", tokenUserID, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(issued)
		},
	}
)
