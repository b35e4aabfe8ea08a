package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dmhy/internal/fetcher"
	"dmhy/internal/scheduler"
	"dmhy/internal/storage"
)

type checkFlags struct {
	feedURL string
	dryRun  bool
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var flags checkFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the feed once and print new matching releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			checker, err := ctx.newChecker(store, cmd.OutOrStdout(), flags)
			if err != nil {
				return err
			}
			res, err := checker.Check(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d item(s), %d matched, %d new\n", res.Items, res.Matched, res.Reported)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.feedURL, "feed", "", "Feed URL (default from config)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print matches without recording them as seen")

	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		flags    checkFlags
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Check the feed periodically until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = cfg.Interval()
			}

			store, err := ctx.openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			checker, err := ctx.newChecker(store, cmd.OutOrStdout(), flags)
			if err != nil {
				return err
			}

			log := ctx.logger()
			log.Info("watching feed", "interval", interval)
			scheduler.New(checker, interval, log).Run(cmd.Context())
			log.Info("watch stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.feedURL, "feed", "", "Feed URL (default from config)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print matches without recording them as seen")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between checks (default from config)")

	return cmd
}

func (c *commandContext) newChecker(store storage.Storage, out io.Writer, flags checkFlags) (*scheduler.Checker, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	matcher, err := c.matcher()
	if err != nil {
		return nil, err
	}

	feedURL := strings.TrimSpace(flags.feedURL)
	if feedURL == "" {
		feedURL = cfg.FeedURL
	}

	f := fetcher.New(http.DefaultClient, cfg.UserAgent)
	checker := scheduler.NewChecker(store, f, matcher, &lineReporter{out: out}, feedURL, c.logger())
	checker.SetDryRun(flags.dryRun)
	return checker, nil
}

// lineReporter prints one tab-separated line per new release.
type lineReporter struct {
	out io.Writer
}

func (r *lineReporter) Report(item fetcher.MatchedItem) {
	target := item.Magnet
	if target == "" {
		target = item.Link
	}
	fmt.Fprintf(r.out, "%s\t%s\t%s\t%s\n", item.Subscription.Title, episodeLabel(item.Episode), item.Title, target)
}
