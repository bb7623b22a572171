package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// LocalName returns the path of the local override file of name, for
// "config.json5" that is "config.local.json5".
func LocalName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func readJson5[T any](path string) (T, bool, error) {
	var out T
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if len(contents) == 0 {
		return out, false, nil
	}
	err = json5.Unmarshal(contents, &out)
	if err != nil {
		return out, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, true, nil
}

// ReadConfig reads a json5 file and merges its local override over it, the
// override wins on every non-zero field. It returns os.ErrNotExist if neither
// file exists.
func ReadConfig[T any](name string) (T, error) {
	out, found, err := readJson5[T](name)
	if err != nil {
		return out, err
	}

	localPath := LocalName(name)
	override, localFound, err := readJson5[T](localPath)
	if err != nil {
		return out, err
	}
	if localFound {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
	}

	if !found && !localFound {
		return out, os.ErrNotExist
	}
	return out, nil
}

// WithDefaults fills every zero field of config from defaults.
func WithDefaults[T any](config T, defaults T) (T, error) {
	err := mergo.Merge(&config, defaults)
	return config, err
}

// EnvOverrides replaces each target with the value of its environment
// variable when that variable is set and not blank.
func EnvOverrides(targets map[string]*string) {
	for key, target := range targets {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			*target = value
		}
	}
}
