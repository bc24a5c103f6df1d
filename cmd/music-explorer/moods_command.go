package main

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/justestif/go-spotify-music-explorer/internal/config"
)

func newMoodsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "moods",
		Short: "Group every cached track by mood",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc service, _ *config.Config, _ zerolog.Logger) error {
				groups, outliers, err := svc.MoodGroups()
				if err != nil {
					return fmt.Errorf("grouping tracks: %w", err)
				}
				if asJSON {
					return writeJSON(cmd, map[string]any{"groups": groups, "outliers": outliers})
				}

				out := cmd.OutOrStdout()
				if len(groups) == 0 {
					fmt.Fprintln(out, "Not enough cached tracks to group by mood")
					return nil
				}

				rows := make([][]string, 0, len(groups))
				for i, g := range groups {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						g.Mood.Name,
						strconv.Itoa(len(g.Tracks)),
						formatUnit(g.Centroid.Energy),
						formatUnit(g.Centroid.Valence),
						fmt.Sprintf("%.0f", g.Centroid.Tempo),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Mood", "Tracks", "Energy", "Valence", "BPM"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				if len(outliers) > 0 {
					fmt.Fprintf(out, "%d tracks left ungrouped\n", len(outliers))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print groups as JSON")
	return cmd
}
