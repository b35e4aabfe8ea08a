package fetcher

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/gofeed"

	"dmhy/internal/filter"
	"dmhy/internal/model"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error

	userAgent string
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.userAgent = req.Header.Get("User-Agent")
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func parseFixture(t *testing.T) *gofeed.Feed {
	t.Helper()
	feed, err := gofeed.NewParser().ParseString(loadFixture(t, "../../testdata/sample.xml"))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return feed
}

func TestFetch(t *testing.T) {
	xml := loadFixture(t, "../../testdata/sample.xml")

	tests := []struct {
		name      string
		transport *mockTransport
		wantTitle string
		wantItems int
		wantErr   bool
	}{
		{
			name:      "successful fetch",
			transport: &mockTransport{body: xml, statusCode: 200},
			wantTitle: "動漫花園資源網",
			wantItems: 5,
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "not found", statusCode: 404},
			wantErr:   true,
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantErr:   true,
		},
		{
			name:      "invalid xml",
			transport: &mockTransport{body: "not xml at all", statusCode: 200},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.transport, "dmhy-test/1.0")
			feed, err := f.Fetch(context.Background(), "https://share.dmhy.org/topics/rss/rss.xml")

			if diff := cmp.Diff("dmhy-test/1.0", tt.transport.userAgent); diff != "" {
				t.Errorf("user agent mismatch (-want +got):\n%s", diff)
			}
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tt.wantTitle, feed.Title); diff != "" {
				t.Errorf("title mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantItems, len(feed.Items)); diff != "" {
				t.Errorf("item count mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestItemGUID(t *testing.T) {
	tests := []struct {
		name     string
		item     *gofeed.Item
		wantGUID string
		hasHash  bool
	}{
		{
			name:     "with guid",
			item:     &gofeed.Item{GUID: "abc-123"},
			wantGUID: "abc-123",
		},
		{
			name:    "without guid generates hash",
			item:    &gofeed.Item{Title: "[萌喵] 搖曳露營 第12話", Link: "https://share.dmhy.org/topics/view/1"},
			hasHash: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ItemGUID(tt.item)
			if tt.hasHash {
				if !strings.HasPrefix(got, "sha256:") {
					t.Errorf("expected sha256 prefix, got %q", got)
				}
				if again := ItemGUID(tt.item); again != got {
					t.Errorf("hash not stable: %q != %q", got, again)
				}
				return
			}
			if diff := cmp.Diff(tt.wantGUID, got); diff != "" {
				t.Errorf("GUID mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func sub(id string, keywords, unkeywords []string, episodeParser string) model.Subscription {
	return model.Subscription{
		ID:            id,
		Title:         strings.Join(keywords, ","),
		Keywords:      keywords,
		Unkeywords:    unkeywords,
		EpisodeParser: episodeParser,
	}
}

type matchSummary struct {
	Title  string
	SubID  string
	Token  string
	Magnet bool
}

func TestMatchItems(t *testing.T) {
	feed := parseFixture(t)
	matcher := filter.NewMatcher(filter.DefaultMatcherOptions())

	camp := sub("camp", []string{"搖曳露營", "萌喵", "繁體", "~1080p~"}, []string{"簡體"}, `第(\d+)話`)
	frieren := sub("frieren", []string{"Frieren"}, nil, `\[(\d+)\]|- (\d+)`)
	allFrieren := sub("all-1080p", []string{"1080p"}, nil, "")

	tests := []struct {
		name string
		subs []model.Subscription
		want []matchSummary
	}{
		{
			name: "no subscriptions",
			subs: nil,
			want: nil,
		},
		{
			name: "unkeyword rejects simplified release",
			subs: []model.Subscription{camp},
			want: []matchSummary{
				{Title: "[萌喵] 搖曳露營 第12話 繁體 1080p", SubID: "camp", Token: "12", Magnet: true},
			},
		},
		{
			name: "episode from either title format",
			subs: []model.Subscription{frieren},
			want: []matchSummary{
				{Title: "[桜都字幕组] 葬送的芙莉蓮 / Sousou no Frieren [05][1080p][繁體內嵌]", SubID: "frieren", Token: "05", Magnet: true},
				{Title: "[LoliHouse] Sousou no Frieren - 05 [WebRip 1080p HEVC-10bit AAC]", SubID: "frieren", Token: "05", Magnet: true},
			},
		},
		{
			name: "first match wins",
			subs: []model.Subscription{frieren, allFrieren, camp},
			want: []matchSummary{
				{Title: "[萌喵] 搖曳露營 第12話 繁體 1080p", SubID: "all-1080p", Magnet: true},
				{Title: "[萌喵] 搖曳露營 第12話 簡體 1080p", SubID: "all-1080p", Magnet: true},
				{Title: "[桜都字幕组] 葬送的芙莉蓮 / Sousou no Frieren [05][1080p][繁體內嵌]", SubID: "frieren", Token: "05", Magnet: true},
				{Title: "[LoliHouse] Sousou no Frieren - 05 [WebRip 1080p HEVC-10bit AAC]", SubID: "frieren", Token: "05", Magnet: true},
			},
		},
		{
			name: "title fallback without keywords",
			subs: []model.Subscription{{ID: "spy", Title: "SPY×FAMILY", Keywords: []string{}, Unkeywords: []string{}}},
			want: []matchSummary{
				{Title: "【喵萌奶茶屋】★10月新番★[間諜家家酒 / SPY×FAMILY][01][720p][繁體]", SubID: "spy"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []matchSummary
			for _, m := range MatchItems(feed.Items, tt.subs, matcher) {
				s := matchSummary{Title: m.Title, SubID: m.Subscription.ID, Magnet: strings.HasPrefix(m.Magnet, "magnet:?")}
				if m.Episode != nil {
					s.Token = m.Episode.Token
				}
				got = append(got, s)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MatchItems() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSeenKey(t *testing.T) {
	withEpisode := MatchedItem{GUID: "g", Episode: &filter.Episode{Token: "12", Number: 12, Numeric: true}}
	withoutEpisode := MatchedItem{GUID: "g"}

	if diff := cmp.Diff("ep:12", withEpisode.SeenKey()); diff != "" {
		t.Errorf("SeenKey() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("guid:g", withoutEpisode.SeenKey()); diff != "" {
		t.Errorf("SeenKey() mismatch (-want +got):\n%s", diff)
	}
}
