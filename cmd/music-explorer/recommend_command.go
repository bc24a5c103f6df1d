package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/justestif/go-spotify-music-explorer/internal/config"
)

func newRecommendCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest artists or tracks to explore next",
	}

	cmd.AddCommand(newRecommendArtistCommand(ctx))
	cmd.AddCommand(newRecommendTrackCommand(ctx))
	return cmd
}

func newRecommendArtistCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "artist <seed-id>",
		Short: "Suggest artists released around now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc service, cfg *config.Config, _ zerolog.Logger) error {
				n, err := resolveLimit(limit, cfg)
				if err != nil {
					return err
				}

				artists := svc.SimilarArtists(cmd.Context(), args[0], n)
				if asJSON {
					return writeJSON(cmd, artists)
				}
				if len(artists) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No suggestions available")
					return nil
				}

				rows := make([][]string, 0, len(artists))
				for i, a := range artists {
					rows = append(rows, []string{strconv.Itoa(i + 1), a.Name, strings.Join(a.Genres, ", "), strconv.Itoa(a.Popularity), a.ID})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"#", "Artist", "Genres", "Popularity", "ID"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of suggestions (default recommend.limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print suggestions as JSON")
	return cmd
}

func newRecommendTrackCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "track <seed-id>",
		Short: "Suggest tracks released around now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc service, cfg *config.Config, _ zerolog.Logger) error {
				n, err := resolveLimit(limit, cfg)
				if err != nil {
					return err
				}

				tracks := svc.SimilarTracks(cmd.Context(), args[0], n)
				if asJSON {
					return writeJSON(cmd, tracks)
				}
				if len(tracks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No suggestions available")
					return nil
				}

				rows := make([][]string, 0, len(tracks))
				for i, t := range tracks {
					rows = append(rows, []string{strconv.Itoa(i + 1), t.Name, t.ArtistLine(), t.ReleaseDate, t.ID})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"#", "Track", "Artists", "Released", "ID"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of suggestions (default recommend.limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print suggestions as JSON")
	return cmd
}

// resolveLimit returns the flag value, or the configured default when unset.
func resolveLimit(flag int, cfg *config.Config) (int, error) {
	switch {
	case flag == 0:
		return cfg.Recommend.Limit, nil
	case flag < 0 || flag > 50:
		return 0, errors.New("--limit must be between 1 and 50")
	default:
		return flag, nil
	}
}
