package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"dmhy/internal/model"
)

var yuruCamp = model.Subscription{
	Title:      "搖曳露營,萌喵,繁體,~1080p~",
	Keywords:   []string{"搖曳露營", "萌喵", "繁體", "~1080p~"},
	Unkeywords: []string{},
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		opts      MatcherOptions
		sub       model.Subscription
		candidate string
		want      Result
	}{
		{
			name:      "all keywords present",
			opts:      DefaultMatcherOptions(),
			sub:       yuruCamp,
			candidate: "[萌喵] 搖曳露營 第12話 繁體 1080p",
			want:      Result{Matched: true},
		},
		{
			name:      "quality wrapping is ignored when matching",
			opts:      DefaultMatcherOptions(),
			sub:       model.Subscription{Title: "t", Keywords: []string{"~1080p~"}},
			candidate: "Show 1080p",
			want:      Result{Matched: true},
		},
		{
			name:      "missing keyword",
			opts:      DefaultMatcherOptions(),
			sub:       yuruCamp,
			candidate: "[萌喵] 搖曳露營 第12話 簡體 1080p",
			want:      Result{},
		},
		{
			name: "unkeyword rejects even if every keyword is present",
			opts: DefaultMatcherOptions(),
			sub: model.Subscription{
				Title:      "搖曳露營",
				Keywords:   []string{"搖曳露營", "1080p"},
				Unkeywords: []string{"簡體"},
			},
			candidate: "[萌喵] 搖曳露營 第12話 繁體 簡體 1080p",
			want:      Result{},
		},
		{
			name:      "unkeyword absent",
			opts:      DefaultMatcherOptions(),
			sub:       model.Subscription{Title: "x", Keywords: []string{"搖曳露營"}, Unkeywords: []string{"簡體"}},
			candidate: "搖曳露營 繁體",
			want:      Result{Matched: true},
		},
		{
			name:      "case insensitive by default",
			opts:      DefaultMatcherOptions(),
			sub:       model.Subscription{Title: "x", Keywords: []string{"yuru camp", "BIG5"}},
			candidate: "[Group] YURU CAMP - 12 [big5][1080P]",
			want:      Result{Matched: true},
		},
		{
			name:      "case sensitive when configured",
			opts:      MatcherOptions{CaseSensitive: true},
			sub:       model.Subscription{Title: "x", Keywords: []string{"yuru camp"}},
			candidate: "YURU CAMP - 12",
			want:      Result{},
		},
		{
			name:      "full-width characters folded",
			opts:      DefaultMatcherOptions(),
			sub:       model.Subscription{Title: "x", Keywords: []string{"1080p", "mp4"}},
			candidate: "搖曳露營 １０８０Ｐ ＭＰ４",
			want:      Result{Matched: true},
		},
		{
			name:      "width folding disabled",
			opts:      MatcherOptions{},
			sub:       model.Subscription{Title: "x", Keywords: []string{"1080p"}},
			candidate: "搖曳露營 １０８０Ｐ",
			want:      Result{},
		},
		{
			name:      "title is the seed without keywords",
			opts:      DefaultMatcherOptions(),
			sub:       model.Subscription{Title: " 搖曳露營 "},
			candidate: "[萌喵] 搖曳露營 第12話",
			want:      Result{Matched: true},
		},
		{
			name:      "title seed missing",
			opts:      DefaultMatcherOptions(),
			sub:       model.Subscription{Title: "搖曳露營 第二季"},
			candidate: "[萌喵] 搖曳露營 第12話",
			want:      Result{},
		},
		{
			name:      "empty keyword matches nothing",
			opts:      DefaultMatcherOptions(),
			sub:       model.Subscription{Title: "x", Keywords: []string{""}},
			candidate: "anything",
			want:      Result{},
		},
		{
			name:      "empty unkeyword rejects nothing",
			opts:      DefaultMatcherOptions(),
			sub:       model.Subscription{Title: "x", Keywords: []string{"a"}, Unkeywords: []string{" "}},
			candidate: "a",
			want:      Result{Matched: true},
		},
		{
			name:      "duplicate keywords are harmless",
			opts:      DefaultMatcherOptions(),
			sub:       model.Subscription{Title: "x", Keywords: []string{"a", "a", "a"}, Unkeywords: []string{"z", "z"}},
			candidate: "abc",
			want:      Result{Matched: true},
		},
		{
			name: "episode extracted",
			opts: DefaultMatcherOptions(),
			sub: model.Subscription{
				Title:         "x",
				Keywords:      []string{"搖曳露營"},
				EpisodeParser: `第(\d+)話`,
			},
			candidate: "[萌喵] 搖曳露營 第12話 繁體",
			want:      Result{Matched: true, Episode: &Episode{Token: "12", Number: 12, Numeric: true}},
		},
		{
			name: "episode parser finds nothing, still a match",
			opts: DefaultMatcherOptions(),
			sub: model.Subscription{
				Title:         "x",
				Keywords:      []string{"搖曳露營"},
				EpisodeParser: `第(\d+)話`,
			},
			candidate: "[萌喵] 搖曳露營 OVA 繁體",
			want:      Result{Matched: true},
		},
		{
			name: "invalid episode parser, still a match",
			opts: DefaultMatcherOptions(),
			sub: model.Subscription{
				Title:         "x",
				Keywords:      []string{"搖曳露營"},
				EpisodeParser: `第(\d+話`,
			},
			candidate: "搖曳露營 第12話",
			want:      Result{Matched: true},
		},
		{
			name: "episode parser is not consulted on a non-match",
			opts: DefaultMatcherOptions(),
			sub: model.Subscription{
				Title:         "x",
				Keywords:      []string{"搖曳露營"},
				Unkeywords:    []string{"簡體"},
				EpisodeParser: `第(\d+)話`,
			},
			candidate: "搖曳露營 第12話 簡體",
			want:      Result{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewMatcher(tt.opts).Match(tt.sub, tt.candidate)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Match() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchMonotonicInKeywords(t *testing.T) {
	candidates := []string{
		"[萌喵] 搖曳露營 第12話 繁體 1080p",
		"[萌喵] 搖曳露營 第12話 簡體 720p",
		"[Other] Yuru Camp - 12 [1080p]",
		"",
	}
	keywordSets := [][]string{
		{"搖曳露營"},
		{"搖曳露營", "繁體"},
		{"yuru", "camp", "1080p"},
		{"萌喵", "~1080p~"},
	}
	extra := []string{"繁體", "1080p", "nothing-like-this", "12"}

	m := NewMatcher(DefaultMatcherOptions())
	for _, c := range candidates {
		for _, ks := range keywordSets {
			for _, e := range extra {
				base := model.Subscription{Title: "x", Keywords: ks, Unkeywords: []string{"簡體"}}
				more := base
				more.Keywords = append(append([]string{}, ks...), e)

				before := m.Match(base, c).Matched
				after := m.Match(more, c).Matched
				if after && !before {
					t.Errorf("adding %q to %v turned a non-match into a match for %q", e, ks, c)
				}
			}
		}
	}
}

func TestFirst(t *testing.T) {
	subs := []model.Subscription{
		{Title: "a", Keywords: []string{"搖曳露營", "簡體"}},
		{Title: "b", Keywords: []string{"搖曳露營"}},
		{Title: "c", Keywords: []string{"露營"}},
	}
	m := NewMatcher(DefaultMatcherOptions())

	tests := []struct {
		name      string
		candidate string
		wantIndex int
	}{
		{name: "first listed wins", candidate: "搖曳露營 繁體", wantIndex: 1},
		{name: "earliest match", candidate: "搖曳露營 簡體", wantIndex: 0},
		{name: "no match", candidate: "Other show", wantIndex: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, res := m.First(subs, tt.candidate)
			if diff := cmp.Diff(tt.wantIndex, got); diff != "" {
				t.Errorf("First() index mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantIndex >= 0, res.Matched); diff != "" {
				t.Errorf("First() verdict mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
