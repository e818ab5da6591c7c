package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maxpollack/Menu/internal/preferences"
)

func prefsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Manage dietary preferences",
	}

	// edit loads the selection, applies fn and saves it back.
	edit := func(fn func(sel *preferences.Selection, args []string)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			sel, err := preferences.LoadSelection(g.store)
			if err != nil {
				return err
			}
			fn(&sel, args)
			if err := sel.Save(g.store); err != nil {
				return err
			}
			return printSelection(cmd, sel)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show suggestions and what is selected",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				sel, err := preferences.LoadSelection(g.store)
				if err != nil {
					return err
				}
				return printSelection(cmd, sel)
			},
		},
		&cobra.Command{
			Use:   "select <preference>...",
			Short: "Toggle one or more preferences on or off",
			Args:  cobra.MinimumNArgs(1),
			RunE: edit(func(sel *preferences.Selection, args []string) {
				for _, p := range args {
					sel.Toggle(p)
				}
			}),
		},
		&cobra.Command{
			Use:   "add <preference>",
			Short: "Add and select a custom preference",
			Args:  cobra.MinimumNArgs(1),
			RunE: edit(func(sel *preferences.Selection, args []string) {
				sel.AddCustom(strings.Join(args, " "))
			}),
		},
		&cobra.Command{
			Use:   "remove <preference>",
			Short: "Forget a custom preference",
			Args:  cobra.MinimumNArgs(1),
			RunE: edit(func(sel *preferences.Selection, args []string) {
				sel.RemoveCustom(strings.Join(args, " "))
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Deselect everything",
			Args:  cobra.NoArgs,
			RunE: edit(func(sel *preferences.Selection, _ []string) {
				sel.Clear()
			}),
		},
	)

	return cmd
}

func printSelection(cmd *cobra.Command, sel preferences.Selection) error {
	out := cmd.OutOrStdout()
	for _, s := range sel.Suggestions() {
		mark := " "
		if sel.IsSelected(s) {
			mark = "x"
		}
		if _, err := fmt.Fprintf(out, "[%s] %s\n", mark, s); err != nil {
			return err
		}
	}
	// Selected entries that are neither presets nor saved customs.
	for _, s := range sel.Selected() {
		if !contains(sel.Suggestions(), s) {
			if _, err := fmt.Fprintf(out, "[x] %s\n", s); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(out, "\nSent as: %q\n", sel.Joined())
	return err
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
