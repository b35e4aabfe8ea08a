// Package subscribe coordinates adding subscriptions: building them from the
// command line or interactive answers, resolving conflicts with existing
// entries and saving the store once per run.
package subscribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"dmhy/internal/filter"
	"dmhy/internal/model"
	"dmhy/internal/subfile"
)

// Prompter is the presentation layer the coordinator talks to.
type Prompter interface {
	Text(ctx context.Context, message, initial string) (string, error)
	List(ctx context.Context, message, separator string) ([]string, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
	Success(sub model.Subscription)
	Error(err error)
}

// Store is the part of the subscription database the coordinator needs.
type Store interface {
	Find(candidate model.Subscription) (model.Subscription, bool)
	Add(sub model.Subscription) model.Subscription
	Save(ctx context.Context) error
}

// Report lists what a run did.
type Report struct {
	Added   []model.Subscription
	Skipped []model.Subscription
}

// Adder runs add requests against a store.
type Adder struct {
	store    Store
	parser   *filter.Parser
	prompter Prompter
	log      *slog.Logger
}

// New creates an Adder.
func New(store Store, parser *filter.Parser, prompter Prompter, log *slog.Logger) *Adder {
	return &Adder{store: store, parser: parser, prompter: prompter, log: log}
}

const (
	msgTitle         = "Subscription title"
	msgKeywords      = "Keywords (separated by %q)"
	msgUnkeywords    = "Excluded keywords (separated by %q)"
	msgEpisodeParser = "Episode parser (regular expression, empty to disable)"
)

// Run validates opts, builds the requested subscriptions, adds them in order
// and saves the store exactly once at the end.
func (a *Adder) Run(ctx context.Context, opts Options) (Report, error) {
	if err := opts.Validate(); err != nil {
		return Report{}, err
	}

	var subs []model.Subscription
	var err error
	if opts.Interactive {
		subs, err = a.interactive(ctx)
	} else {
		subs, err = a.fromArgs(opts)
	}
	if err != nil {
		return Report{}, err
	}

	var report Report
	policy := opts.Policy()
	for _, sub := range subs {
		stored, added, err := a.safeAdd(ctx, sub, policy)
		if err != nil {
			return report, err
		}
		if added {
			report.Added = append(report.Added, stored)
		} else {
			report.Skipped = append(report.Skipped, sub)
		}
	}

	if err := a.store.Save(ctx); err != nil {
		return report, err
	}
	return report, nil
}

func (a *Adder) safeAdd(ctx context.Context, sub model.Subscription, policy Policy) (model.Subscription, bool, error) {
	if existing, found := a.store.Find(sub); found {
		switch policy {
		case PolicyNo:
			a.log.Debug("subscription exists, skipping", "title", sub.Title, "existing_id", existing.ID)
			return model.Subscription{}, false, nil
		case PolicyAsk:
			ok, err := a.prompter.Confirm(ctx, conflictMessage(sub, existing), false)
			// No answer counts as the default, so the rest of the batch is still saved.
			if errors.Is(err, io.EOF) {
				a.log.Debug("no answer, skipping", "title", sub.Title)
				ok, err = false, nil
			}
			if err != nil {
				return model.Subscription{}, false, fmt.Errorf("confirm add: %w", err)
			}
			if !ok {
				return model.Subscription{}, false, nil
			}
		}
	}

	stored := a.store.Add(sub)
	a.log.Debug("subscription added", "id", stored.ID, "title", stored.Title)
	a.prompter.Success(stored)
	return stored, true, nil
}

func conflictMessage(sub, existing model.Subscription) string {
	if strings.TrimSpace(sub.Title) == strings.TrimSpace(existing.Title) {
		return fmt.Sprintf("%q is already subscribed. Add it anyway?", sub.Title)
	}
	return fmt.Sprintf("%q matches the existing subscription %q. Add it anyway?", sub.Title, existing.Title)
}

// fromArgs parses every subscribable in order. A subscribable naming a YAML
// file expands into the subscriptions it holds. Blank strings are reported
// and skipped.
func (a *Adder) fromArgs(opts Options) ([]model.Subscription, error) {
	var subs []model.Subscription
	for _, arg := range opts.Subscribables {
		var inputs []filter.Input
		if subfile.IsSubscriptionFile(arg) {
			fromFile, err := subfile.ReadFile(arg)
			if err != nil {
				return nil, err
			}
			inputs = fromFile
		} else {
			inputs = []filter.Input{{Kind: filter.InputRaw, Raw: arg, RawUnkeywords: opts.Unkeywords}}
		}

		for _, in := range inputs {
			sub, err := a.parser.Parse(in)
			if err != nil {
				if errors.Is(err, filter.ErrInvalidSpec) {
					a.prompter.Error(err)
					continue
				}
				return nil, err
			}
			a.checkEpisodeParser(sub)
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

type interactiveState int

const (
	awaitingTitle interactiveState = iota
	titleValidated
	done
)

// interactive collects one subscription from the prompter, asking for the
// title again until it is not blank.
func (a *Adder) interactive(ctx context.Context) ([]model.Subscription, error) {
	var (
		state = awaitingTitle
		title string
		sub   model.Subscription
	)

	for state != done {
		switch state {
		case awaitingTitle:
			answer, err := a.prompter.Text(ctx, msgTitle, "")
			if err != nil {
				return nil, fmt.Errorf("prompt title: %w", err)
			}
			if strings.TrimSpace(answer) == "" {
				a.prompter.Error(fmt.Errorf("%w: title must not be blank", ErrValidation))
				continue
			}
			title = answer
			state = titleValidated

		case titleValidated:
			sep := a.parser.Delimiter()
			keywords, err := a.prompter.List(ctx, fmt.Sprintf(msgKeywords, sep), sep)
			if err != nil {
				return nil, fmt.Errorf("prompt keywords: %w", err)
			}
			unkeywords, err := a.prompter.List(ctx, fmt.Sprintf(msgUnkeywords, sep), sep)
			if err != nil {
				return nil, fmt.Errorf("prompt unkeywords: %w", err)
			}
			episodeParser, err := a.prompter.Text(ctx, msgEpisodeParser, "")
			if err != nil {
				return nil, fmt.Errorf("prompt episode parser: %w", err)
			}

			sub, err = a.parser.Parse(filter.Structured(title, keywords, unkeywords, episodeParser))
			if err != nil {
				a.prompter.Error(err)
				state = awaitingTitle
				continue
			}
			a.checkEpisodeParser(sub)
			state = done
		}
	}
	return []model.Subscription{sub}, nil
}

// checkEpisodeParser warns about a pattern that will never extract anything.
// The subscription is kept; it still matches without episode numbers.
func (a *Adder) checkEpisodeParser(sub model.Subscription) {
	if err := filter.ValidateEpisodeParser(sub.EpisodeParser); err != nil {
		a.log.Warn("episode parser will be ignored", "title", sub.Title, "error", err)
	}
}
