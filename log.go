package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

// setupLog routes diagnostic logging. The pager owns the terminal, so
// nothing may ever log to stdout/stderr while running; output is
// discarded unless a file sink is requested. SP_LOG names an explicit
// sink and implies debug level; otherwise the `debug` config key turns
// on the default sink under the cache directory. Reader-task and
// search errors are logged at error level, which passes the level
// filter either way, so a sink always captures them.
func setupLog(debug bool) (func() error, error) {
	log.SetOutput(io.Discard)
	log.SetLevel(log.WarnLevel)

	path := os.Getenv("SP_LOG")
	if path == "" {
		if !debug {
			return func() error { return nil }, nil
		}
		dir, err := gap.NewScope(gap.User, "streampager").CacheDir()
		if err != nil {
			return nil, fmt.Errorf("unable to get cache dir: %w", err)
		}
		path = filepath.Join(dir, "streampager.log")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		// log disabled
		return func() error { return nil }, nil //nolint:nilerr
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		// log disabled
		return func() error { return nil }, nil //nolint:nilerr
	}
	log.SetOutput(f)
	log.SetLevel(log.DebugLevel)
	log.SetReportTimestamp(true)
	log.Debug("-- streampager starting ---------")
	return f.Close, nil
}
