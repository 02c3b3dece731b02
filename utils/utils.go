package utils

import (
	"os"
)

func PathExists(path string) (res bool, err error) {
	_, statErr := os.Stat(path)
	if statErr == nil {
		res = true
	} else if !os.IsNotExist(statErr) {
		err = statErr
	}
	return
}

// EnsureDir creates path and any missing parents.
func EnsureDir(path string) error {
	if exists, err := PathExists(path); err != nil || exists {
		return err
	}
	return os.MkdirAll(path, 0755)
}
