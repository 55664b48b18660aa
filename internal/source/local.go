package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/xxxsen/mdkeep/internal/model"
)

type localConfig struct {
	Paths []string `json:"paths"`
}

type localSource struct {
	paths []string
}

func init() {
	Register("local", createLocalSource)
}

func createLocalSource(args interface{}) (Source, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return NewLocal(cfg.Paths...), nil
}

// NewLocal builds a source from file and directory paths. Directories expand to
// every regular file below them, sorted by path.
func NewLocal(paths ...string) Source {
	return &localSource{paths: paths}
}

func (s *localSource) Type() string {
	return "local"
}

func (s *localSource) List(ctx context.Context) ([]model.FileHandle, error) {
	out := make([]model.FileHandle, 0, len(s.paths))
	for _, p := range s.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if err != nil {
			// unreadable entries still show up in the batch so the run reports them
			out = append(out, LocalFile(p))
			continue
		}
		if !info.IsDir() {
			out = append(out, LocalFile(p))
			continue
		}
		files, err := walkDir(p)
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
		for _, f := range files {
			out = append(out, LocalFile(f))
		}
	}
	return out, nil
}

func walkDir(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

type localFile struct {
	path string
}

func LocalFile(path string) model.FileHandle {
	return &localFile{path: path}
}

func (f *localFile) Name() string {
	return filepath.Base(f.path)
}

func (f *localFile) ReadText(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", readError(f.path, err)
	}
	return decodeText(f.path, data)
}
