package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maxpollack/Menu/internal/imagebudget"
)

func compressCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compress <in> <out>",
		Short: "Shrink an image to the upload budget without sending it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			budget := imagebudget.ClientBudget

			comp, err := imagebudget.New(imagebudget.WithLogger(g.logger))
			if err != nil {
				return err
			}
			res, err := comp.Compress(cmd.Context(), data, budget.Target())
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], res.Data, 0o644); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !res.Compressed {
				_, err = fmt.Fprintf(out, "%s already fits (%d bytes), copied as %s\n",
					args[0], res.OriginalSize, res.MediaType)
				return err
			}
			_, err = fmt.Fprintf(out, "%d -> %d bytes (%s, %dx%d) as %s\n",
				res.OriginalSize, len(res.Data), res.Attempt, res.Width, res.Height, res.MediaType)
			return err
		},
	}

	return cmd
}
