package fetcher

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"dmhy/internal/filter"
	"dmhy/internal/model"
)

// MatchedItem is a feed item attributed to the subscription it matched.
type MatchedItem struct {
	Title     string
	Link      string
	Magnet    string
	GUID      string
	Published *time.Time

	Subscription model.Subscription
	// Episode is nil when the subscription extracts no episode from the title.
	Episode *filter.Episode
}

// SeenKey identifies the release within its subscription. Items carrying an
// episode share a key per episode, so one episode is reported once no matter
// how many groups release it.
func (m MatchedItem) SeenKey() string {
	if m.Episode != nil {
		return "ep:" + m.Episode.Token
	}
	return "guid:" + m.GUID
}

// MatchItems attributes each item to the first subscription, in store order,
// whose filter it satisfies. Items matching no subscription are dropped.
func MatchItems(items []*gofeed.Item, subs []model.Subscription, matcher *filter.Matcher) []MatchedItem {
	var matched []MatchedItem
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		i, res := matcher.First(subs, title)
		if i < 0 {
			continue
		}
		matched = append(matched, MatchedItem{
			Title:        title,
			Link:         item.Link,
			Magnet:       magnet(item),
			GUID:         ItemGUID(item),
			Published:    item.PublishedParsed,
			Subscription: subs[i],
			Episode:      res.Episode,
		})
	}
	return matched
}

func magnet(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}
