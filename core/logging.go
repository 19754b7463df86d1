package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// SetupLogging configures log output to stdout, mirrored into a file in
// cfg.LogDir when set. Caller should close the returned io.Closer on
// shutdown; it is nil when logging only to stdout.
func SetupLogging(cfg Config, filename string) (io.Closer, error) {
	if cfg.LogDir == "" {
		return nil, nil
	}
	if filename == "" {
		filename = "app.log"
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir %s: %w", cfg.LogDir, err)
	}

	path := filepath.Join(cfg.LogDir, filename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	mw := io.MultiWriter(os.Stdout, f)
	log.SetOutput(mw)
	gin.DefaultWriter = mw
	gin.DefaultErrorWriter = mw

	return f, nil
}
