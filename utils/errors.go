package utils

import (
	"github.com/pkg/errors"
)

// NewUnsupportedFileTypeError is used when a file extension or declared input type has no reader.
func NewUnsupportedFileTypeError(path, kind string) error {
	return errors.Errorf("do not know how to read %q as %q", path, kind)
}
