package words

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed starter_words.txt
var starterList []byte

// EnsureDefaultList seeds the starter wordlist at path. Only writes when
// no file exists there yet; a list the user already curated is never
// touched. Returns true when the file was created.
func EnsureDefaultList(path string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("words: prepare %s: %w", filepath.Dir(path), err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("words: seed %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(starterList); err != nil {
		os.Remove(path)
		return false, fmt.Errorf("words: seed %s: %w", path, err)
	}
	return true, nil
}
