package pipeline

import (
	"errors"
	"fmt"
	"os"
)

// WithStaging creates an input and an output staging directory under base
// (os.TempDir when empty), runs fn, and removes both directories however
// fn returns, including by panic.
func WithStaging(base string, fn func(inDir, outDir string) error) (err error) {
	inDir, err := os.MkdirTemp(base, "pbgen-in-")
	if err != nil {
		return fmt.Errorf("create input staging dir: %w", err)
	}
	defer func() {
		err = errors.Join(err, removeStaging(inDir))
	}()

	outDir, err := os.MkdirTemp(base, "pbgen-out-")
	if err != nil {
		return fmt.Errorf("create output staging dir: %w", err)
	}
	defer func() {
		err = errors.Join(err, removeStaging(outDir))
	}()

	return fn(inDir, outDir)
}

func removeStaging(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove staging dir %s: %w", dir, err)
	}
	return nil
}
