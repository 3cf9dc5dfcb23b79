// Package words owns the wordlist: loading it from disk, sampling it
// uniformly, feeding the dispatch queue at the paced cadence, and hot
// reloading the file while the agent runs.
package words

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync/atomic"
)

// ErrNoWords reports a wordlist file with no usable entries. With word
// sending enabled this disables the word loop; the rest of the agent is
// unaffected.
var ErrNoWords = errors.New("words: list contains no words")

// Load reads a newline-delimited wordlist. Blank lines and surrounding
// whitespace are ignored.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("words: read %s: %w", path, err)
	}
	var list []string
	for _, line := range strings.Split(string(data), "\n") {
		if w := strings.TrimSpace(line); w != "" {
			list = append(list, w)
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("words: %s: %w", path, ErrNoWords)
	}
	return list, nil
}

// List is a swappable snapshot of the wordlist. Pick reads whatever
// snapshot is current; Replace installs a new one atomically so a reload
// never disturbs an in-flight sample.
type List struct {
	snapshot atomic.Pointer[[]string]
}

// NewList builds a list over the given words.
func NewList(words []string) *List {
	l := &List{}
	l.snapshot.Store(&words)
	return l
}

// Pick samples one word uniformly at random, with replacement. Returns
// false when the list is empty.
func (l *List) Pick() (string, bool) {
	words := *l.snapshot.Load()
	if len(words) == 0 {
		return "", false
	}
	return words[rand.IntN(len(words))], true
}

// Replace swaps in a new snapshot. Empty replacements are rejected so a
// botched reload cannot starve the producer.
func (l *List) Replace(words []string) error {
	if len(words) == 0 {
		return ErrNoWords
	}
	l.snapshot.Store(&words)
	return nil
}

// Len reports the current snapshot size.
func (l *List) Len() int { return len(*l.snapshot.Load()) }
