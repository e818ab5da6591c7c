package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maxpollack/Menu/internal/client"
	"github.com/maxpollack/Menu/internal/preferences"
)

func analyzeCmd(g *globals) *cobra.Command {
	var (
		prefsFlag  string
		noFeedback bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze a menu photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runAnalyze(ctx, cmd, g, args[0], prefsFlag, noFeedback, asJSON)
		},
	}

	cmd.Flags().StringVarP(&prefsFlag, "prefs", "p", "", "Comma-separated preferences (default: saved selection)")
	cmd.Flags().BoolVar(&noFeedback, "no-feedback", false, "Do not send liked/disliked dishes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw analysis JSON")

	return cmd
}

func runAnalyze(
	ctx context.Context,
	cmd *cobra.Command,
	g *globals,
	path string,
	prefsFlag string,
	noFeedback bool,
	asJSON bool,
) error {

	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	prefs := preferences.SplitList(prefsFlag)
	if len(prefs) == 0 {
		sel, err := preferences.LoadSelection(g.store)
		if err != nil {
			return err
		}
		prefs = sel.Selected()
	}
	if len(prefs) == 0 {
		return errors.New("no dietary preferences: pass --prefs or run `menuscan prefs select`")
	}

	var fb preferences.Feedback
	if !noFeedback {
		if fb, err = preferences.LoadFeedback(g.store); err != nil {
			return err
		}
	}

	c, err := client.New(g.server, client.WithLogger(g.logger))
	if err != nil {
		return err
	}

	res, err := c.Analyze(ctx, client.Request{
		Image:       image,
		Filename:    filepath.Base(path),
		Preferences: prefs,
		Feedback:    fb,
	})
	switch {
	case errors.Is(err, client.ErrImageUnusable):
		return fmt.Errorf("this photo could not be shrunk enough to upload, try a different image (%w)", err)
	case errors.Is(err, client.ErrUnreachable):
		return fmt.Errorf("could not reach %s, please try again (%w)", g.server, err)
	case err != nil:
		return err
	}

	if !res.Analysis.IsRaw() {
		if err := preferences.SaveRecent(g.store, client.ItemNames(res.Analysis)); err != nil {
			g.logger.Warn("could not remember dishes for feedback", "error", err)
		}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Analysis)
	}

	if res.UploadedBytes < len(image) {
		fmt.Fprintf(out, "Compressed %d KB to %d KB before upload.\n\n", len(image)>>10, res.UploadedBytes>>10)
	}
	return client.Render(out, res.Analysis, fb)
}
