package textproc

import (
	"fmt"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/kljensen/snowball/english"
)

const (
	NormalizerLemma = "lemma"
	NormalizerStem  = "stem"
	NormalizerNone  = "none"
)

// Normalizer maps a surface word to the form stored in the vocabulary.
type Normalizer interface {
	Normalize(word string) string
}

// NewNormalizer builds the normalizer registered under kind. An empty kind means lemma.
func NewNormalizer(kind string) (Normalizer, error) {
	if err := CheckNormalizer(kind); err != nil {
		return nil, err
	}

	switch normalizerKind(kind) {
	case NormalizerStem:
		return Stemmer{}, nil
	case NormalizerNone:
		return Identity{}, nil
	default:
		return NewLemmatizer()
	}
}

// CheckNormalizer reports whether kind names a known normalizer without building it.
func CheckNormalizer(kind string) error {
	switch normalizerKind(kind) {
	case NormalizerLemma, NormalizerStem, NormalizerNone:
		return nil
	default:
		return fmt.Errorf("unsupported normalizer: %s", kind)
	}
}

func normalizerKind(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		return NormalizerLemma
	}
	return kind
}

// Lemmatizer looks words up in the English lemma dictionary.
type Lemmatizer struct {
	lemmatizer *golem.Lemmatizer
}

// NewLemmatizer loads the English dictionary. Loading is expensive; share the result.
func NewLemmatizer() (*Lemmatizer, error) {
	l, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemma dictionary: %w", err)
	}
	return &Lemmatizer{lemmatizer: l}, nil
}

// Normalize returns the dictionary base form, or word itself when the dictionary does not know it.
func (l *Lemmatizer) Normalize(word string) string {
	return l.lemmatizer.Lemma(word)
}

// Stemmer applies the Snowball English stemmer.
type Stemmer struct{}

func (Stemmer) Normalize(word string) string {
	return english.Stem(word, false)
}

// Identity leaves words untouched.
type Identity struct{}

func (Identity) Normalize(word string) string { return word }
