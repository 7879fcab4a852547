// Package phrases provides the catalog utterances are drawn from.
package phrases

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rand is the random source used to pick a phrase.
type Rand interface {
	Intn(n int) int
}

// Catalog is a fixed, non-empty list of phrases.
type Catalog struct {
	phrases []string
}

var builtin = []string{
	"I pity the fool who doesn't believe in themselves.",
	"Treat your mother right.",
	"Be somebody, or be somebody's fool.",
	"Discipline is doing what needs to be done, even when you don't feel like it.",
	"Respect is earned by how you treat people, not how loud you talk.",
	"Strength means protecting people who need help.",
	"Don't wait for perfect. Start now and improve as you go.",
	"Character is what you do when nobody is watching.",
	"You don't need luck when you've got preparation.",
	"Train your mind, and your body will follow.",
	"Kindness and toughness are not opposites.",
	"Small progress every day beats big plans someday.",
}

// Default returns the built-in catalog.
func Default() Catalog {
	return Catalog{phrases: append([]string(nil), builtin...)}
}

// New builds a catalog from phrases, dropping blanks.
func New(phrases []string) (Catalog, error) {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return Catalog{}, errors.New("phrase catalog is empty")
	}
	return Catalog{phrases: out}, nil
}

type catalogFile struct {
	Phrases []string `yaml:"phrases"`
}

// Load reads a YAML catalog of the form `phrases: [...]`. An empty path
// returns the built-in catalog.
func Load(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read phrase catalog %q: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Catalog{}, fmt.Errorf("parse phrase catalog %q: %w", path, err)
	}

	catalog, err := New(file.Phrases)
	if err != nil {
		return Catalog{}, fmt.Errorf("phrase catalog %q: %w", path, err)
	}
	return catalog, nil
}

// Len returns the number of phrases.
func (c Catalog) Len() int {
	return len(c.phrases)
}

// Pick draws one phrase uniformly.
func (c Catalog) Pick(rng Rand) string {
	if len(c.phrases) == 0 {
		return ""
	}
	return c.phrases[rng.Intn(len(c.phrases))]
}
