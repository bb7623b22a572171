package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
	devenv "rankwatch/dev/env"
)

// DirOutput writes every message to its own file in a directory.
type DirOutput struct {
	directory string
}

// NewDirOutput creates dir (which may start with <dev_state>) if it is
// missing. Files from earlier runs are kept.
func NewDirOutput(dir string) (DirOutput, error) {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return DirOutput{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return DirOutput{}, err
	}
	return DirOutput{directory: dir}, nil
}

func (o DirOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message dump", "id", id, "err", err)
	}
}
