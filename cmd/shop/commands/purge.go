package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/solo_shop/internal/db"
	"github.com/Skotchmaster/solo_shop/internal/repo"
)

var purgeCmd = &cobra.Command{
	Use:   "purge-tokens",
	Short: "Delete expired blacklist entries",
	Long: `Remove blacklisted refresh tokens whose expiry has passed. Those tokens
fail validation on their own, so the rows are no longer needed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPurge(cmd.Context(), cmd)
	},
}

func runPurge(ctx context.Context, cmd *cobra.Command) error {
	gdb, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gdb) }()

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	n, err := repo.New(gdb).Blacklist().PurgeExpired(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("purge blacklist: %w", err)
	}
	logger.Info("blacklist purged", "removed", n)
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired tokens\n", n)
	return nil
}
