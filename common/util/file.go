package util

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
)

// OpenInputFile opens the file at "path" for reading. An empty path or "-"
// means standard input, which is never closed by the returned ReadCloser.
func OpenInputFile(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return ioutil.NopCloser(os.Stdin), nil
	}
	return os.Open(ToUniversalPath(path))
}

// ToUniversalPath returns the result of replacing each slash ('/') character
// in "path" with an OS-sepcific separator character. Multiple slashes are
// replaced by multiple separators
func ToUniversalPath(path string) string {
	return filepath.FromSlash(path)
}
