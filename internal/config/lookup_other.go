//go:build !unix

package config

import "os"

// Without access(2) the best we can do is an existence check.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
