package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dmhy/internal/database"
	"dmhy/internal/model"
	"dmhy/internal/subfile"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscriptions in store order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			return ctx.withDatabase(cmd.Context(), func(db *database.Database) error {
				subs := db.All()
				out := cmd.OutOrStdout()

				if asYAML {
					return subfile.Write(out, subs)
				}
				if len(subs) == 0 {
					fmt.Fprintln(out, "No subscriptions yet. Use `dmhy add` to create one.")
					return nil
				}
				writeRows(out, subscriptionHeaders, subscriptionRows(subs, cfg.Delimiter))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print subscriptions as a YAML document that `dmhy add` accepts")

	return cmd
}

var subscriptionHeaders = []string{"ID", "Title", "Keywords", "Excluded", "Episode parser"}

func subscriptionRows(subs []model.Subscription, delimiter string) [][]string {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{
			s.ID,
			s.Title,
			strings.Join(s.Keywords, delimiter),
			strings.Join(s.Unkeywords, delimiter),
			s.EpisodeParser,
		})
	}
	return rows
}
