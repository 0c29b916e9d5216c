package replies

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_replies.yaml
var defaultReplies []byte

// Entry pairs a keyword lemma with its canned reply.
type Entry struct {
	Keyword string `yaml:"keyword"`
	Reply   string `yaml:"reply"`
}

// Table is the ordered keyword → reply list. It is immutable once loaded.
type Table struct {
	entries []Entry
}

// NewTable validates entries and keeps the first reply for duplicate keywords.
func NewTable(entries []Entry) (*Table, error) {
	seen := make(map[string]struct{}, len(entries))
	t := &Table{entries: make([]Entry, 0, len(entries))}
	for i, e := range entries {
		kw := strings.ToLower(strings.TrimSpace(e.Keyword))
		reply := strings.TrimSpace(e.Reply)
		if kw == "" || reply == "" {
			return nil, fmt.Errorf("reply table entry %d: keyword and reply are required", i+1)
		}
		if strings.ContainsFunc(kw, isSpace) {
			return nil, fmt.Errorf("reply table entry %d: keyword %q must be a single word", i+1, kw)
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		t.entries = append(t.entries, Entry{Keyword: kw, Reply: reply})
	}
	if len(t.entries) == 0 {
		return nil, errors.New("reply table is empty")
	}
	return t, nil
}

// ParseTable decodes a YAML list of {keyword, reply} entries.
func ParseTable(data []byte) (*Table, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse reply table: %w", err)
	}
	return NewTable(entries)
}

// LoadTable reads the table at path, or the built-in one when path is empty.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return ParseTable(defaultReplies)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reply table: %w", err)
	}
	return ParseTable(data)
}

// Entries returns a copy of the table in file order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Len reports the number of distinct keywords.
func (t *Table) Len() int { return len(t.entries) }

// indexed maps normal forms of keywords to replies.
type indexed map[string]indexedEntry

type indexedEntry struct {
	keyword string
	reply   string
}

// index runs every keyword through lem so lookups compare like with like.
// When two keywords share a normal form the earlier one wins.
func (t *Table) index(lem Lemmatizer) (indexed, []string, error) {
	idx := make(indexed, len(t.entries))
	var shadowed []string
	for _, e := range t.entries {
		norm, err := lem.Normalize(e.Keyword)
		if err != nil {
			return nil, nil, fmt.Errorf("normalize keyword %q: %w", e.Keyword, err)
		}
		if _, taken := idx[norm]; taken {
			shadowed = append(shadowed, e.Keyword)
			continue
		}
		idx[norm] = indexedEntry{keyword: e.Keyword, reply: e.Reply}
	}
	return idx, shadowed, nil
}
