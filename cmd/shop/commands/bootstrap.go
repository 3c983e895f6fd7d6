package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/solo_shop/internal/db"
	"github.com/Skotchmaster/solo_shop/internal/repo"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the schema and seed the product",
	Long: `Run AutoMigrate for every table and insert the product row from the
SEED_PRODUCT_* settings. An existing product row is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBootstrap(cmd.Context())
	},
}

func runBootstrap(ctx context.Context) error {
	gdb, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gdb) }()

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	productCache, closeCache := newProductCache(ctx)
	defer closeCache()

	return bootstrapStore(ctx, gdb, newCatalog(repo.New(gdb), productCache))
}
