package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dudu/livecam/internal/camera"
	"github.com/dudu/livecam/internal/config"
	"github.com/dudu/livecam/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// openCamera claims the device lock and opens the camera with the
// configured settings. The returned func releases both.
func openCamera(cfg *config.Config, update camera.ConfigUpdate, logger *slog.Logger) (*camera.Device, func(), error) {
	lock, err := camera.AcquireLock(camera.LockPath(cfg.Camera.LockDir, cfg.Camera.Device))
	if err != nil {
		return nil, nil, err
	}

	logger.Info("opening camera", "device", cfg.Camera.Device)
	dev, err := camera.Open(cfg.Camera.Device, update, logger)
	if err != nil {
		_ = lock.Release()
		return nil, nil, err
	}
	logger.Info("camera opened", "width", dev.Width(), "height", dev.Height())

	release := func() {
		if err := dev.Close(); err != nil {
			logger.Warn("close camera", "error", err)
		}
		if err := lock.Release(); err != nil {
			logger.Warn("release camera lock", "error", err)
		}
	}
	return dev, release, nil
}
