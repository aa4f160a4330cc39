package migrate

import (
	"context"
	"fmt"

	"github.com/srejanashetty/efarm-backend/pkg/config"
	"github.com/srejanashetty/efarm-backend/pkg/db"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on API startup when running in
// dev with EFARM_DB_RUN_MIGRATIONS_DEV enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.DB.RunMigrationsDev {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "source": "embedded"})
	logg.Info(ctx, "applying migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, Embedded(), "up"); err != nil {
		return err
	}

	logg.Info(ctx, "migrations applied")
	return nil
}
