package main

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gorm.io/gorm"

	_ "embed"

	usecase "github.com/tigerroll/swell/pkg/orchestrator/core/application/usecase"
	config "github.com/tigerroll/swell/pkg/orchestrator/core/config"
	scheduler "github.com/tigerroll/swell/pkg/orchestrator/engine/scheduler"
	inframetrics "github.com/tigerroll/swell/pkg/orchestrator/infrastructure/metrics"
	remote "github.com/tigerroll/swell/pkg/orchestrator/infrastructure/remote"
	sqlrepo "github.com/tigerroll/swell/pkg/orchestrator/infrastructure/repository/sql"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/logger"
)

// embeddedConfig embeds the application's YAML configuration file. Environment
// variable references in it are expanded at load time.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

func loadConfig() (*config.Config, error) {
	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}
	if err := godotenv.Load(envFilePath); err != nil {
		logger.Debugf("No .env file loaded from '%s': %v", envFilePath, err)
	}

	cfg, err := config.LoadFromBytes(embeddedConfig)
	if err != nil {
		return nil, err
	}
	logger.SetLogLevel(cfg.Swell.System.Logging.Level)
	return cfg, nil
}

func main() {
	app := fx.New(
		fx.Provide(loadConfig),
		sqlrepo.Module,
		remote.Module,
		inframetrics.Module,
		usecase.Module,
		scheduler.Module,
		fx.Invoke(func(cfg *config.Config, db *gorm.DB) error {
			return sqlrepo.MigrateUp(db, cfg.Swell.Database.Type)
		}),
	)

	// Run blocks until SIGINT/SIGTERM, then runs the OnStop hooks.
	app.Run()
}
