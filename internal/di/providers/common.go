// Package providers contains dependency injection providers for the catalog.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/tagcatalog/internal/config"
	"github.com/listenupapp/tagcatalog/internal/logger"
)

// ProvideConfig loads the configuration from the flags registered in the
// injector, the environment and the .env file.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	flags := do.MustInvoke[config.Flags](i)
	return config.LoadConfig(flags)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Debug("Opening catalog",
		"environment", cfg.App.Environment,
		"data_path", cfg.Storage.DataPath,
		"backend", cfg.Storage.Backend,
	)

	return log, nil
}
