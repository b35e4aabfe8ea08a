package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dmhy/internal/database"
)

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm"},
		Short:   "Remove subscriptions by ID",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(cmd.Context(), func(db *database.Database) error {
				var missing []string
				removed := 0
				for _, id := range args {
					sub, ok := db.Get(id)
					if !ok || !db.Remove(id) {
						missing = append(missing, id)
						continue
					}
					removed++
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %q (%s)\n", sub.Title, sub.ID)
				}

				if removed > 0 {
					if err := db.Save(cmd.Context()); err != nil {
						return err
					}
				}
				if len(missing) > 0 {
					return fmt.Errorf("subscription not found: %s", strings.Join(missing, ", "))
				}
				return nil
			})
		},
	}
}
