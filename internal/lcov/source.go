package lcov

import (
	"fmt"

	"trimlcov/internal/model"
)

// SourceLoader reads the lines of a source file named by an SF record.
type SourceLoader interface {
	Load(path string) ([]string, error)
}

// FileLoader reads sources from the filesystem, resolving relative paths
// against the working directory.
type FileLoader struct{}

func (FileLoader) Load(path string) ([]string, error) {
	return model.ReadSourceLines(path)
}

// LoaderFunc adapts a plain function to SourceLoader.
type LoaderFunc func(path string) ([]string, error)

func (fn LoaderFunc) Load(path string) ([]string, error) {
	return fn(path)
}

// loadSource wraps loader failures in ErrSourceUnreadable.
func loadSource(loader SourceLoader, path string) (model.SourceFile, error) {
	lines, err := loader.Load(path)
	if err != nil {
		return model.SourceFile{}, fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, path, err)
	}
	return model.SourceFile{Path: path, Lines: lines}, nil
}
