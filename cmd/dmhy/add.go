package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dmhy/internal/database"
	"dmhy/internal/prompt"
	"dmhy/internal/subscribe"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var opts subscribe.Options

	cmd := &cobra.Command{
		Use:   "add [subscription|file.yml...]",
		Short: "Add subscriptions",
		Long: `Add one subscription per argument.

A subscription is a delimited list of keywords; the whole string is kept as
its title. Wrap a keyword in "!" to exclude it and in "~" to mark a quality
tag, for example:

  dmhy add "搖曳露營,萌喵,繁體,~1080p~,!簡體!"

An argument naming a .yml or .yaml file adds every subscription it holds.`,
		Example: `  dmhy add "搖曳露營,萌喵,繁體,~1080p~" --exclude 簡體
  dmhy add ./subscriptions.yml --no
  dmhy add --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Subscribables = args
			if err := opts.Validate(); err != nil {
				return err
			}

			parser, err := ctx.parser()
			if err != nil {
				return err
			}

			return ctx.withDatabase(cmd.Context(), func(db *database.Database) error {
				term := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout())
				adder := subscribe.New(db, parser, term, ctx.logger())

				report, err := adder.Run(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if len(report.Skipped) > 0 && opts.Policy() == subscribe.PolicyAsk {
					fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d existing subscription(s).\n", len(report.Skipped))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "Ask for the subscription fields")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Add subscriptions that already exist without asking")
	cmd.Flags().BoolVarP(&opts.No, "no", "n", false, "Skip subscriptions that already exist without asking")
	cmd.Flags().StringVar(&opts.Unkeywords, "exclude", "", "Delimited keywords to exclude from every subscription")

	return cmd
}
