package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	ErrNotExist     = errors.New("does not exist")
	ErrNotDirectory = errors.New("is not a directory")
)

func ValidateModelDir(modelDir string) error {
	fi, err := os.Stat(modelDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("model path %s %w", modelDir, ErrNotExist)
		}
		return fmt.Errorf("checking model path: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("model path %s %w", modelDir, ErrNotDirectory)
	}
	return nil
}

// FirstExisting returns the first of names present as a regular file in dir.
func FirstExisting(dir string, names ...string) (string, bool) {
	for _, name := range names {
		fi, err := os.Stat(filepath.Join(dir, name))
		if err == nil && fi.Mode().IsRegular() {
			return name, true
		}
	}
	return "", false
}

// DirSize sums the sizes of all regular files below dir.
func DirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
