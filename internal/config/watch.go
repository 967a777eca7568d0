package config

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// WatchFile reads path once, calls onUpdate with its content, then polls the file's
// modification time and calls onUpdate again after every change until ctx is done.
func WatchFile(ctx context.Context, path string, interval time.Duration, logger *zerolog.Logger, onUpdate func([]byte)) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()
	onUpdate(data)

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil || !info.ModTime().After(lastMod) {
					continue
				}
				data, err := os.ReadFile(path)
				if err != nil {
					if logger != nil {
						logger.Warn().Err(err).Str("path", path).Msg("reload watched file")
					}
					continue
				}
				lastMod = info.ModTime()
				onUpdate(data)
			}
		}
	}()

	return nil
}
