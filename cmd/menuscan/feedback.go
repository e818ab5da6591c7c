package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maxpollack/Menu/internal/preferences"
)

func feedbackCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Like or dislike dishes from past analyses",
		Long: `Liked and disliked dishes are sent with every analysis so the ratings
learn your taste. Liking a dish you already liked removes the like; the same
goes for dislikes. A dish is never both liked and disliked.`,
	}

	toggle := func(apply func(f *preferences.Feedback, item string)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			item := strings.Join(args, " ")
			fb, err := preferences.LoadFeedback(g.store)
			if err != nil {
				return err
			}
			apply(&fb, item)
			if err := fb.Save(g.store); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", item, fb.StatusOf(item))
			return err
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "like <dish>",
			Short: "Toggle a like on a dish",
			Args:  cobra.MinimumNArgs(1),
			RunE:  toggle((*preferences.Feedback).ToggleLike),
		},
		&cobra.Command{
			Use:   "dislike <dish>",
			Short: "Toggle a dislike on a dish",
			Args:  cobra.MinimumNArgs(1),
			RunE:  toggle((*preferences.Feedback).ToggleDislike),
		},
		&cobra.Command{
			Use:   "forget <dish>",
			Short: "Drop any feedback on a dish",
			Args:  cobra.MinimumNArgs(1),
			RunE:  toggle((*preferences.Feedback).Forget),
		},
		&cobra.Command{
			Use:   "list",
			Short: "Show liked and disliked dishes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				fb, err := preferences.LoadFeedback(g.store)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if fb.Empty() {
					_, err = fmt.Fprintln(out, "No feedback yet.")
					return err
				}
				for _, item := range fb.Liked() {
					fmt.Fprintf(out, "+ %s\n", item)
				}
				for _, item := range fb.Disliked() {
					fmt.Fprintf(out, "- %s\n", item)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "recent",
			Short: "Show dishes from the last analysis with their feedback",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items, err := preferences.LoadRecent(g.store)
				if err != nil {
					return err
				}
				fb, err := preferences.LoadFeedback(g.store)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					_, err = fmt.Fprintln(out, "No analyzed dishes yet. Run `menuscan analyze` first.")
					return err
				}
				for _, item := range items {
					fmt.Fprintf(out, "%-9s %s\n", fb.StatusOf(item), item)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget all feedback",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				var fb preferences.Feedback
				if err := fb.Save(g.store); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Feedback cleared.")
				return err
			},
		},
	)

	return cmd
}
