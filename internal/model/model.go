// Package model defines the domain types used across the application.
package model

import (
	"slices"
	"strings"
)

// Subscription is a user-declared filter over feed entry titles.
type Subscription struct {
	// ID is the storage handle. It is not part of a subscription's identity.
	ID            string
	Title         string
	Keywords      []string
	Unkeywords    []string
	EpisodeParser string
}

// Same reports whether a and b describe the same subscription.
// Titles are compared after trimming; otherwise two non-empty keyword lists
// holding the same set of tokens are considered equal.
func Same(a, b Subscription) bool {
	if strings.TrimSpace(a.Title) == strings.TrimSpace(b.Title) {
		return true
	}
	if len(a.Keywords) == 0 || len(b.Keywords) == 0 {
		return false
	}
	return slices.Equal(keywordSet(a.Keywords), keywordSet(b.Keywords))
}

func keywordSet(keywords []string) []string {
	set := make([]string, 0, len(keywords))
	for _, k := range keywords {
		set = append(set, strings.TrimSpace(k))
	}
	slices.Sort(set)
	return slices.Compact(set)
}

// Clone returns a deep copy of s. Nil lists become empty lists.
func (s Subscription) Clone() Subscription {
	c := s
	c.Keywords = append([]string{}, s.Keywords...)
	c.Unkeywords = append([]string{}, s.Unkeywords...)
	return c
}
