// Package appctx carries process-wide state on a context.Context between the root
// command and its subcommands.
package appctx

import (
	"context"

	"github.com/vulntor/fabricscan/pkg/config"
)

type key string

const configKey key = "fabricscan.config.manager"

// WithConfig stores the loaded config manager on ctx.
func WithConfig(ctx context.Context, manager *config.Manager) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey, manager)
}

// Config returns the config manager stored by WithConfig.
func Config(ctx context.Context) (*config.Manager, bool) {
	if ctx == nil {
		return nil, false
	}
	mgr, ok := ctx.Value(configKey).(*config.Manager)
	return mgr, ok && mgr != nil
}
