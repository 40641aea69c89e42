//go:build !nogpu

package gpu

import (
	"log/slog"

	"github.com/gogpu/gsplat"
)

// slogger returns the current package logger.
// All logging in internal/gpu goes through this function so that
// gsplat.SetLogger reaches the device layer as well.
func slogger() *slog.Logger { return gsplat.Logger() }
