// Package subfile reads and writes YAML subscription documents.
//
// A document is either a single subscription mapping, a sequence of them, or
// a mapping with a "subscriptions" sequence:
//
//	title: 搖曳露營
//	keywords: [搖曳露營, 萌喵, 繁體, ~1080p~]
//	unkeywords: [簡體]
//	episodeParser: 第(\d+)話
package subfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"dmhy/internal/filter"
	"dmhy/internal/model"
)

// Entry is one subscription as written in a document.
type Entry struct {
	Title         string   `yaml:"title" validate:"required,max=512"`
	Keywords      []string `yaml:"keywords,omitempty" validate:"dive,max=256"`
	Unkeywords    []string `yaml:"unkeywords,omitempty" validate:"dive,max=256"`
	EpisodeParser string   `yaml:"episodeParser,omitempty" validate:"max=512"`
}

type document struct {
	Subscriptions []Entry `yaml:"subscriptions"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// IsSubscriptionFile reports whether arg names an existing YAML file.
func IsSubscriptionFile(arg string) bool {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yml", ".yaml":
	default:
		return false
	}
	info, err := os.Stat(arg)
	return err == nil && info.Mode().IsRegular()
}

// ReadFile reads the subscriptions of the document at path.
func ReadFile(path string) ([]filter.Input, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the user on purpose
	if err != nil {
		return nil, fmt.Errorf("open subscription file: %w", err)
	}
	defer func() { _ = f.Close() }()

	inputs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inputs, nil
}

// Read decodes and validates a document into structured parser inputs.
func Read(r io.Reader) ([]filter.Input, error) {
	entries, err := decode(r)
	if err != nil {
		return nil, err
	}

	inputs := make([]filter.Input, 0, len(entries))
	for i, e := range entries {
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("subscription %d: %w", i+1, err)
		}
		inputs = append(inputs, filter.Structured(e.Title, e.Keywords, e.Unkeywords, e.EpisodeParser))
	}
	return inputs, nil
}

func decode(r io.Reader) ([]Entry, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty subscription file")
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	var entries []Entry
	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode subscriptions: %w", err)
		}
	case yaml.MappingNode:
		if hasKey(node, "subscriptions") {
			var doc document
			if err := node.Decode(&doc); err != nil {
				return nil, fmt.Errorf("decode subscriptions: %w", err)
			}
			entries = doc.Subscriptions
		} else {
			var e Entry
			if err := node.Decode(&e); err != nil {
				return nil, fmt.Errorf("decode subscription: %w", err)
			}
			entries = []Entry{e}
		}
	default:
		return nil, fmt.Errorf("unexpected yaml node at line %d", node.Line)
	}
	return entries, nil
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}

// Write encodes subs as a document with a "subscriptions" sequence.
func Write(w io.Writer, subs []model.Subscription) error {
	doc := document{Subscriptions: make([]Entry, 0, len(subs))}
	for _, s := range subs {
		doc.Subscriptions = append(doc.Subscriptions, Entry{
			Title:         s.Title,
			Keywords:      s.Keywords,
			Unkeywords:    s.Unkeywords,
			EpisodeParser: s.EpisodeParser,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
