package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/justestif/go-spotify-music-explorer/internal/config"
)

func newSimilarityCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "similarity <artist-id> <artist-id>",
		Short: "Score how alike two artists are",
		Long: "Scores two artists from 0 to 1 by blending genre overlap (40%), " +
			"top-track audio closeness (40%) and popularity closeness (20%). " +
			"An artist whose features cannot be loaded scores 0.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc service, _ *config.Config, _ zerolog.Logger) error {
				cmp := svc.CompareArtists(cmd.Context(), args[0], args[1])
				if asJSON {
					return writeJSON(cmd, cmp)
				}

				nameA, nameB := args[0], args[1]
				if cmp.A != nil {
					nameA = cmp.A.Name
				}
				if cmp.B != nil {
					nameB = cmp.B.Name
				}

				b := cmp.Breakdown
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Signal", "Score"},
					[][]string{
						{"Genre", formatUnit(b.Genre)},
						{"Audio", formatUnit(b.Audio)},
						{"Popularity", formatUnit(b.Popularity)},
						{"Total", formatUnit(b.Total)},
					},
					[]columnAlignment{alignLeft, alignRight},
				))
				fmt.Fprintf(cmd.OutOrStdout(), "%s vs %s: %.2f\n", nameA, nameB, b.Total)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the comparison as JSON")
	return cmd
}
