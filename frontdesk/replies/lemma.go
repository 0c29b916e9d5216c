package replies

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/kljensen/snowball"
	"gopkg.in/yaml.v3"
)

// Lemmatizer maps a lowercased surface token to its normal form.
// Ambiguous tokens resolve to the analyzer's top candidate.
type Lemmatizer interface {
	Normalize(token string) (string, error)
}

// LemmatizerFunc adapts a plain function to Lemmatizer.
type LemmatizerFunc func(token string) (string, error)

// Normalize calls f.
func (f LemmatizerFunc) Normalize(token string) (string, error) { return f(token) }

// Identity leaves tokens unchanged.
var Identity Lemmatizer = LemmatizerFunc(func(token string) (string, error) { return token, nil })

const (
	KindSnowball   = "snowball"
	KindDictionary = "dictionary"
	KindIdentity   = "identity"
)

// SnowballLemmatizer approximates normal forms with the Snowball stemmer.
type SnowballLemmatizer struct {
	Language string
}

// Normalize stems token. Stop words are stemmed too so that keywords never
// depend on the stop word list.
func (s SnowballLemmatizer) Normalize(token string) (string, error) {
	lang := s.Language
	if lang == "" {
		lang = "russian"
	}
	stem, err := snowball.Stem(token, lang, true)
	if err != nil {
		return "", fmt.Errorf("snowball %s: %w", lang, err)
	}
	return stem, nil
}

//go:embed default_lemmas.yaml
var defaultLemmas []byte

// DictionaryLemmatizer looks surface forms up in a lemma → forms dictionary.
// Tokens missing from the dictionary go to the chained analyzer; a result that
// matches the analyzed form of a listed word maps back to that word's lemma.
type DictionaryLemmatizer struct {
	forms map[string]string
	// order keeps form → lemma pairs in file order for building the stem index.
	order [][2]string
	next  Lemmatizer
	stems map[string]string
}

// ParseDictionary reads a YAML mapping of lemma to its surface forms.
// A form listed under several lemmas belongs to the first one in file order.
func ParseDictionary(data []byte) (*DictionaryLemmatizer, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse lemma dictionary: %w", err)
	}
	d := &DictionaryLemmatizer{forms: make(map[string]string)}
	if len(doc.Content) == 0 {
		return d, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse lemma dictionary: line %d: expected a mapping of lemma to forms", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, formsNode := root.Content[i], root.Content[i+1]
		lemma := strings.ToLower(strings.TrimSpace(keyNode.Value))
		if lemma == "" {
			return nil, fmt.Errorf("parse lemma dictionary: line %d: empty lemma", keyNode.Line)
		}
		var forms []string
		if err := formsNode.Decode(&forms); err != nil {
			return nil, fmt.Errorf("parse lemma dictionary: lemma %q: %w", lemma, err)
		}
		d.add(lemma, lemma)
		for _, form := range forms {
			d.add(strings.ToLower(strings.TrimSpace(form)), lemma)
		}
	}
	return d, nil
}

// LoadDictionary reads the dictionary at path, or the built-in one when path is empty.
func LoadDictionary(path string) (*DictionaryLemmatizer, error) {
	if path == "" {
		return ParseDictionary(defaultLemmas)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lemma dictionary: %w", err)
	}
	return ParseDictionary(data)
}

func (d *DictionaryLemmatizer) add(form, lemma string) {
	if form == "" {
		return
	}
	if _, taken := d.forms[form]; !taken {
		d.forms[form] = lemma
		d.order = append(d.order, [2]string{form, lemma})
	}
}

// Chain sets the analyzer for unlisted tokens and indexes every listed form
// through it. Forms sharing an analyzed form belong to the earliest lemma.
func (d *DictionaryLemmatizer) Chain(next Lemmatizer) error {
	if next == nil {
		d.next, d.stems = nil, nil
		return nil
	}
	stems := make(map[string]string, len(d.order))
	for _, p := range d.order {
		stem, err := next.Normalize(p[0])
		if err != nil {
			return fmt.Errorf("index lemma dictionary: %q: %w", p[0], err)
		}
		if _, taken := stems[stem]; !taken {
			stems[stem] = p[1]
		}
	}
	d.next, d.stems = next, stems
	return nil
}

// Len reports the number of known surface forms.
func (d *DictionaryLemmatizer) Len() int { return len(d.forms) }

// Normalize returns the lemma of token.
func (d *DictionaryLemmatizer) Normalize(token string) (string, error) {
	if lemma, ok := d.forms[token]; ok {
		return lemma, nil
	}
	if d.next == nil {
		return token, nil
	}
	stem, err := d.next.Normalize(token)
	if err != nil {
		return "", err
	}
	if lemma, ok := d.stems[stem]; ok {
		return lemma, nil
	}
	return stem, nil
}

// LemmatizerConfig selects and configures the analyzer.
type LemmatizerConfig struct {
	Kind           string `yaml:"kind" envconfig:"LEMMATIZER_KIND"`
	Language       string `yaml:"language" envconfig:"LEMMATIZER_LANGUAGE"`
	DictionaryPath string `yaml:"dictionary_path" envconfig:"LEMMATIZER_DICTIONARY_PATH"`
}

// NewLemmatizer builds the analyzer described by cfg; the dictionary is the default.
// The dictionary kind stems words it does not list and maps a stem shared
// with a listed word back to that word's lemma.
func NewLemmatizer(cfg LemmatizerConfig) (Lemmatizer, error) {
	stemmer := SnowballLemmatizer{Language: cfg.Language}
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	if kind == "" || kind == KindSnowball || kind == KindDictionary {
		// fail on an unsupported language at startup rather than per message
		if _, err := stemmer.Normalize("тест"); err != nil {
			return nil, err
		}
	}
	switch kind {
	case KindSnowball:
		return stemmer, nil
	case "", KindDictionary:
		d, err := LoadDictionary(cfg.DictionaryPath)
		if err != nil {
			return nil, err
		}
		if err := d.Chain(stemmer); err != nil {
			return nil, err
		}
		return d, nil
	case KindIdentity:
		return Identity, nil
	}
	return nil, fmt.Errorf("unknown lemmatizer kind %q; allowed: snowball, dictionary, identity", cfg.Kind)
}
