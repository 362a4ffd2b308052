package secrets

import (
	"context"
	"log/slog"
	"maps"
	"os"
)

// EnvLoader returns a Loader that reads the specified environment variables.
// Missing variables are omitted from the result map.
func EnvLoader(keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}

// WithDefaults returns a Loader that fills keys missing from l with defaults.
func WithDefaults(l Loader, defaults map[string]string) Loader {
	return func() (map[string]string, error) {
		vals, err := l()
		if err != nil {
			return nil, err
		}
		out := maps.Clone(defaults)
		if out == nil {
			out = make(map[string]string, len(vals))
		}
		maps.Copy(out, vals)
		return out, nil
	}
}

// ReloadOn reloads v each time trigger fires until ctx is done.
func ReloadOn(ctx context.Context, v *Vault, trigger <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-trigger:
			if err := v.Reload(); err != nil {
				slog.Error("secret reload failed", "error", err)
				continue
			}
			slog.Info("secrets reloaded", "keys", v.Keys())
		}
	}
}
