// Package adapters pulls clipboard history out of on-disk stores and
// normalizes it into entries. Each store format gets its own adapter;
// discovery maps configured manager names and paths onto the right one.
package adapters

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"clipsleuth/config"
	"clipsleuth/entry"
	"clipsleuth/logger"

	"golang.org/x/time/rate"
)

// Adapter extracts entries from one clipboard store.
type Adapter interface {
	Name() string
	Extract(ctx context.Context) ([]*entry.Entry, error)
}

var sqliteExtensions = map[string]bool{
	".db":      true,
	".sqlite":  true,
	".sqlite3": true,
}

// Discover builds the adapter set for the configured stores. Missing
// paths are logged and skipped rather than failing the run: a forensic
// pass should collect whatever is present.
func Discover(cfg *config.Config) []Adapter {
	var found []Adapter
	limiter := newIOLimiter(cfg.MaxIOPerSecond)

	names := make([]string, 0, len(cfg.ManagerStores))
	for name := range cfg.ManagerStores {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path, ok := resolveStorePath(cfg.ManagerStores[name])
		if !ok {
			logger.Debugf("Store for %s not found, skipping", name)
			continue
		}
		found = append(found, storeAdapter(name, path, cfg, limiter))
	}

	for _, raw := range cfg.StorePaths {
		path, ok := resolveStorePath(raw)
		if !ok {
			logger.Warnf("Store path %s not found, skipping", raw)
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		found = append(found, storeAdapter(name, path, cfg, limiter))
	}

	for _, raw := range cfg.DumpFiles {
		path, ok := resolveStorePath(raw)
		if !ok {
			logger.Warnf("Dump file %s not found, skipping", raw)
			continue
		}
		found = append(found, NewDumpAdapter(path))
	}

	return found
}

func storeAdapter(name, path string, cfg *config.Config, limiter *rate.Limiter) Adapter {
	if sqliteExtensions[strings.ToLower(filepath.Ext(path))] {
		return NewSQLiteAdapter(name, path, cfg, limiter)
	}
	return NewFileAdapter(name, path, cfg)
}

// resolveStorePath expands ~ and environment variables and checks the
// path exists.
func resolveStorePath(raw string) (string, bool) {
	path := os.ExpandEnv(raw)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

func newIOLimiter(perSecond int) *rate.Limiter {
	if perSecond > 0 {
		return rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
	return rate.NewLimiter(rate.Inf, 1)
}
