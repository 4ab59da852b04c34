package runtime

import (
	"context"

	"vsa-launcher/internal/app"
	"vsa-launcher/internal/config"
	"vsa-launcher/internal/logging"
)

type Service interface {
	RunContext(ctx context.Context) error
}

func NewServiceWithHooks(opts config.Options, settings config.Settings, logger *logging.Logger, hooks StartHooks) (Service, error) {
	if logger == nil {
		panic("runtime.NewServiceWithHooks: logger must not be nil")
	}

	settingsPath, err := config.SettingsPath()
	if err != nil {
		logger.Debug("settings path unresolved, live reload disabled", logging.Field("error", err))
		settingsPath = ""
	}

	return app.New(opts, settings, settingsPath, logger, app.Callbacks{
		OnStatusChange: hooks.OnStatus,
		OnFileDetected: hooks.OnFileDetected,
		OnWorldChanged: hooks.OnWorldChanged,
	}), nil
}
