// Package fflags provides per-resource kill switches. Flags are resolved
// on every read so an env-var driven flag can change without a restart in
// environments that rewrite the process environment.
package fflags

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

type FFlags struct {
	logger *zap.SugaredLogger
	mu     sync.RWMutex
	flags  map[string]func() bool
}

func NewFFlags(logger *zap.SugaredLogger) *FFlags {
	return &FFlags{
		logger: logger,
		flags:  map[string]func() bool{},
	}
}

// RegisterFlag registers a named flag backed by an arbitrary check.
func (f *FFlags) RegisterFlag(name string, check func() bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[name] = check
}

// RegisterEnvFlag registers a flag controlled by the env var, falling back
// to defaultValue when the variable is unset or unparsable.
func (f *FFlags) RegisterEnvFlag(name string, env string, defaultValue bool) {
	f.RegisterFlag(name, func() bool {
		if envValue, err := strconv.ParseBool(os.Getenv(env)); err == nil {
			return envValue
		}
		return defaultValue
	})
}

// ListFlags returns a map of all currently defined feature flags and
// whether those features are enabled (true) or not (false).
func (f *FFlags) ListFlags() map[string]bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := map[string]bool{}
	for name, check := range f.flags {
		result[name] = check()
	}
	return result
}

// GetFlag returns whether the feature named by the string parameter
// flag is enabled (true) or not (false). An error is returned if
// the flag name is invalid.
func (f *FFlags) GetFlag(flag string) (bool, error) {
	f.mu.RLock()
	check, ok := f.flags[flag]
	f.mu.RUnlock()
	if !ok {
		f.logger.Errorf("invalid feature flag name: %s", flag)
		return false, fmt.Errorf("invalid feature flag name: %s", flag)
	}
	return check(), nil
}
