package filter

import (
	"errors"
	"fmt"
	"strings"

	"dmhy/internal/model"
)

// ErrInvalidSpec is returned when a subscription input carries nothing to
// build a filter from.
var ErrInvalidSpec = errors.New("invalid subscription spec")

// InputKind tags which half of an Input is populated.
type InputKind int

// Supported input kinds.
const (
	InputRaw InputKind = iota
	InputStructured
)

// Input is either a raw delimited subscription string or a structured,
// pre-split set of answers. Both kinds go through the same normalization.
type Input struct {
	Kind InputKind

	// Raw is the delimited subscription string. It doubles as the title.
	Raw string
	// RawUnkeywords is an optional delimited list of extra unkeywords.
	RawUnkeywords string

	Title         string
	Keywords      []string
	Unkeywords    []string
	EpisodeParser string
}

// Raw builds an InputRaw from a delimited subscription string.
func Raw(s string) Input {
	return Input{Kind: InputRaw, Raw: s}
}

// Structured builds an InputStructured from pre-split answers.
func Structured(title string, keywords, unkeywords []string, episodeParser string) Input {
	return Input{
		Kind:          InputStructured,
		Title:         title,
		Keywords:      keywords,
		Unkeywords:    unkeywords,
		EpisodeParser: episodeParser,
	}
}

// ParserOptions controls the raw-string grammar.
//
//	Delimiter       token separator, "," when empty
//	NegationMarker  "!x!" turns x into an unkeyword; empty disables negation
//	QualityMarker   "~x~" marks a quality/tag hint; cosmetic only
//	StripQuality    store "~x~" as "x"
type ParserOptions struct {
	Delimiter      string
	NegationMarker string
	QualityMarker  string
	StripQuality   bool
}

// DefaultParserOptions returns the grammar used when nothing is configured.
func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		Delimiter:      ",",
		NegationMarker: "!",
		QualityMarker:  "~",
	}
}

// Parser turns subscription inputs into normalized subscriptions.
type Parser struct {
	opts ParserOptions
}

// NewParser creates a Parser with the given options.
func NewParser(opts ParserOptions) *Parser {
	if opts.Delimiter == "" {
		opts.Delimiter = ","
	}
	return &Parser{opts: opts}
}

// Delimiter returns the token separator in use.
func (p *Parser) Delimiter() string {
	return p.opts.Delimiter
}

// Parse normalizes in into a Subscription. Malformed tokens are dropped
// rather than reported; only a blank input fails, with ErrInvalidSpec.
func (p *Parser) Parse(in Input) (model.Subscription, error) {
	switch in.Kind {
	case InputRaw:
		if strings.TrimSpace(in.Raw) == "" {
			return model.Subscription{}, fmt.Errorf("%w: empty subscription string", ErrInvalidSpec)
		}
		return p.normalize(in.Raw, p.Split(in.Raw), p.Split(in.RawUnkeywords), ""), nil
	case InputStructured:
		if strings.TrimSpace(in.Title) == "" {
			return model.Subscription{}, fmt.Errorf("%w: empty title", ErrInvalidSpec)
		}
		return p.normalize(in.Title, in.Keywords, in.Unkeywords, in.EpisodeParser), nil
	default:
		return model.Subscription{}, fmt.Errorf("%w: unknown input kind %d", ErrInvalidSpec, in.Kind)
	}
}

// Split cuts s on the configured delimiter without any cleanup.
func (p *Parser) Split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, p.opts.Delimiter)
}

func (p *Parser) normalize(title string, keywords, unkeywords []string, episodeParser string) model.Subscription {
	sub := model.Subscription{
		Title:         title,
		Keywords:      []string{},
		Unkeywords:    []string{},
		EpisodeParser: episodeParser,
	}
	for _, raw := range keywords {
		tok, negated, ok := p.token(raw)
		if !ok {
			continue
		}
		if negated {
			sub.Unkeywords = append(sub.Unkeywords, tok)
		} else {
			sub.Keywords = append(sub.Keywords, tok)
		}
	}
	for _, raw := range unkeywords {
		tok, _, ok := p.token(raw)
		if !ok {
			continue
		}
		sub.Unkeywords = append(sub.Unkeywords, tok)
	}
	return sub
}

// token trims raw and reports whether it was wrapped in the negation marker.
// ok is false when nothing is left.
func (p *Parser) token(raw string) (tok string, negated, ok bool) {
	tok = strings.TrimSpace(raw)
	if tok == "" {
		return "", false, false
	}
	if inner, wrapped := unwrap(tok, p.opts.NegationMarker); wrapped {
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return "", false, false
		}
		return p.quality(inner), true, true
	}
	return p.quality(tok), false, true
}

func (p *Parser) quality(tok string) string {
	if !p.opts.StripQuality {
		return tok
	}
	if inner, ok := unwrap(tok, p.opts.QualityMarker); ok {
		if inner = strings.TrimSpace(inner); inner != "" {
			return inner
		}
	}
	return tok
}

// unwrap returns the text between a leading and trailing marker.
func unwrap(tok, marker string) (string, bool) {
	if marker == "" || len(tok) < 2*len(marker) {
		return "", false
	}
	if !strings.HasPrefix(tok, marker) || !strings.HasSuffix(tok, marker) {
		return "", false
	}
	return tok[len(marker) : len(tok)-len(marker)], true
}
