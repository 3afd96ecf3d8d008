// Package payload stages user-entered key/value pairs and flattens them into
// the string mapping attached to a job at creation time.
package payload

import (
	"errors"
	"strings"
)

var ErrEmptyPair = errors.New("payload key and value are required")

// Pair is one staged entry. Pairs have no identity beyond their position.
type Pair struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Builder keeps the staged pairs in entry order plus the uncommitted draft.
// It is not safe for concurrent use.
type Builder struct {
	pairs      []Pair
	draftKey   string
	draftValue string
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) SetDraft(key, value string) {
	b.draftKey = key
	b.draftValue = value
}

func (b *Builder) Draft() (key, value string) {
	return b.draftKey, b.draftValue
}

// AddPair stages key/value as entered and clears the draft. Blank keys or
// values are rejected with ErrEmptyPair and leave the builder untouched.
func (b *Builder) AddPair(key, value string) error {
	if strings.TrimSpace(key) == "" || strings.TrimSpace(value) == "" {
		return ErrEmptyPair
	}
	b.pairs = append(b.pairs, Pair{Key: key, Value: value})
	b.draftKey, b.draftValue = "", ""
	return nil
}

// CommitDraft stages the current draft.
func (b *Builder) CommitDraft() error {
	return b.AddPair(b.draftKey, b.draftValue)
}

// RemovePair drops the pair at index i. Subsequent pairs shift down by one.
// Out of range indexes are ignored.
func (b *Builder) RemovePair(i int) bool {
	if i < 0 || i >= len(b.pairs) {
		return false
	}
	b.pairs = append(b.pairs[:i:i], b.pairs[i+1:]...)
	return true
}

func (b *Builder) Pairs() []Pair {
	out := make([]Pair, len(b.pairs))
	copy(out, b.pairs)
	return out
}

func (b *Builder) Len() int {
	return len(b.pairs)
}

// Finalize folds the staged pairs, and the draft when both of its fields are
// filled in, into a mapping. For duplicate keys the last pair wins.
func (b *Builder) Finalize() map[string]string {
	out := make(map[string]string, len(b.pairs)+1)
	for _, p := range b.pairs {
		out[p.Key] = p.Value
	}
	if strings.TrimSpace(b.draftKey) != "" && strings.TrimSpace(b.draftValue) != "" {
		out[b.draftKey] = b.draftValue
	}
	return out
}

// Reset clears staged pairs and the draft.
func (b *Builder) Reset() {
	b.pairs = nil
	b.draftKey, b.draftValue = "", ""
}
