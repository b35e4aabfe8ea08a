package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dmhy/internal/database"
	"dmhy/internal/filter"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match <title>...",
		Short: "Show which subscriptions match the given release titles",
		Long: `Run every stored subscription against each title without touching the
feed. All matching subscriptions are listed, in store order; a feed check
attributes a release to the first of them only.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matcher, err := ctx.matcher()
			if err != nil {
				return err
			}

			return ctx.withDatabase(cmd.Context(), func(db *database.Database) error {
				subs := db.All()
				out := cmd.OutOrStdout()

				var rows [][]string
				for _, title := range args {
					matched := false
					for _, sub := range subs {
						res := matcher.Match(sub, title)
						if !res.Matched {
							continue
						}
						matched = true
						rows = append(rows, []string{title, sub.ID, sub.Title, episodeLabel(res.Episode)})
					}
					if !matched {
						rows = append(rows, []string{title, "-", "no match", "-"})
					}
				}
				writeRows(out, []string{"Release", "ID", "Subscription", "Episode"}, rows)
				return nil
			})
		},
	}
}

func episodeLabel(ep *filter.Episode) string {
	switch {
	case ep == nil:
		return "-"
	case ep.Numeric:
		return fmt.Sprintf("%s (%g)", ep.Token, ep.Number)
	default:
		return ep.Token
	}
}
