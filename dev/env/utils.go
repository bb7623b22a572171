package devenv

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const DEV_STATE_PREFIX = "<dev_state>"

var modName = regexp.MustCompile(`(?m)^module *([\w\-_/.]+)$`)

func isWorkspaceRoot(currentdir string) bool {
	mod, err := os.ReadFile(filepath.Join(currentdir, "go.mod"))
	if err != nil {
		return false
	}
	matches := modName.FindSubmatch(mod)
	return len(matches) >= 2 && string(matches[1]) == "rankwatch"
}

// GetWorkspaceRoot walks up from the working directory to the directory
// holding this module's go.mod.
func GetWorkspaceRoot() (string, error) {
	currentdir, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	root, err := filepath.Abs("/")
	if err != nil {
		return "", err
	}

	for currentdir != root {
		if isWorkspaceRoot(currentdir) {
			return currentdir, nil
		}
		currentdir = filepath.Join(currentdir, "..")
	}
	return "", os.ErrNotExist
}

// ResolvePath expands a leading "<dev_state>" into the dev/.state directory of
// the workspace, creating it if needed. Other paths are returned unchanged.
func ResolvePath(path string) (string, error) {
	subpath, ok := strings.CutPrefix(path, DEV_STATE_PREFIX)
	if !ok {
		return path, nil
	}

	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}
	statedir := filepath.Join(root, "dev", ".state")
	err = os.MkdirAll(statedir, 0777)
	if err != nil {
		return "", err
	}
	return filepath.Join(statedir, strings.TrimLeft(subpath, `/\`)), nil
}
