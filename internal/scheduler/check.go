package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/gofeed"

	"dmhy/internal/fetcher"
	"dmhy/internal/filter"
	"dmhy/internal/storage"
)

// FeedSource downloads a parsed feed.
type FeedSource interface {
	Fetch(ctx context.Context, url string) (*gofeed.Feed, error)
}

// Reporter receives every new match found by a check.
type Reporter interface {
	Report(item fetcher.MatchedItem)
}

// CheckResult summarizes one check.
type CheckResult struct {
	Items    int
	Matched  int
	Reported int
}

// Checker matches one feed against the stored subscriptions.
type Checker struct {
	store    storage.Storage
	feeds    FeedSource
	matcher  *filter.Matcher
	reporter Reporter
	log      *slog.Logger

	feedURL string
	dryRun  bool
}

// NewChecker creates a Checker for feedURL.
func NewChecker(store storage.Storage, feeds FeedSource, matcher *filter.Matcher, reporter Reporter, feedURL string, log *slog.Logger) *Checker {
	return &Checker{
		store:    store,
		feeds:    feeds,
		matcher:  matcher,
		reporter: reporter,
		log:      log,
		feedURL:  feedURL,
	}
}

// SetDryRun makes checks report matches without recording them as seen.
func (c *Checker) SetDryRun(dryRun bool) {
	c.dryRun = dryRun
}

// Check fetches the feed, attributes items to subscriptions (first match
// wins) and reports releases not seen before. Subscriptions are reloaded on
// every check so entries added by another invocation are picked up.
func (c *Checker) Check(ctx context.Context) (CheckResult, error) {
	subs, err := c.store.LoadSubscriptions(ctx)
	if err != nil {
		return CheckResult{}, fmt.Errorf("load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		c.log.Debug("no subscriptions, skipping feed")
		return CheckResult{}, nil
	}

	feed, err := c.feeds.Fetch(ctx, c.feedURL)
	if err != nil {
		return CheckResult{}, fmt.Errorf("fetch feed: %w", err)
	}

	matched := fetcher.MatchItems(feed.Items, subs, c.matcher)
	result := CheckResult{Items: len(feed.Items), Matched: len(matched)}

	reported := make(map[[2]string]bool)
	for _, item := range matched {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		key := item.SeenKey()
		pair := [2]string{item.Subscription.ID, key}
		if reported[pair] {
			continue
		}

		seen, err := c.store.IsSeen(ctx, item.Subscription.ID, key)
		if err != nil {
			c.log.Error("check seen", "subscription_id", item.Subscription.ID, "key", key, "error", err)
			continue
		}
		if seen {
			continue
		}

		c.reporter.Report(item)
		reported[pair] = true
		result.Reported++

		if c.dryRun {
			continue
		}
		if err := c.store.MarkSeen(ctx, item.Subscription.ID, key); err != nil {
			c.log.Error("mark seen", "subscription_id", item.Subscription.ID, "key", key, "error", err)
		}
	}

	if result.Reported > 0 {
		c.log.Info("new releases", "feed", c.feedURL, "count", result.Reported)
	}
	return result, nil
}
