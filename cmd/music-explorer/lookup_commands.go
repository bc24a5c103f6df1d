package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/justestif/go-spotify-music-explorer/internal/config"
	"github.com/justestif/go-spotify-music-explorer/internal/explorer"
	"github.com/justestif/go-spotify-music-explorer/internal/features"
)

func newArtistCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "artist <id> [id...]",
		Short: "Show cached features for artists, fetching them on first use",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc service, _ *config.Config, _ zerolog.Logger) error {
				if len(args) > 1 {
					results, err := svc.LookupArtists(cmd.Context(), args)
					if err != nil {
						return err
					}
					return printLookups(cmd, results, asJSON, func(a *features.ArtistFeatures) (string, string) {
						return a.Name, strings.Join(a.Genres, ", ")
					})
				}

				artist, err := svc.ArtistFeatures(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, artist)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderArtist(artist, svc))
				if len(artist.TopTracks) > 0 {
					fmt.Fprintln(out, renderTopTracks(artist.TopTracks))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the feature record as JSON")
	return cmd
}

func newTrackCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "track <id> [id...]",
		Short: "Show cached features for tracks, fetching them on first use",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc service, _ *config.Config, _ zerolog.Logger) error {
				if len(args) > 1 {
					results, err := svc.LookupTracks(cmd.Context(), args)
					if err != nil {
						return err
					}
					return printLookups(cmd, results, asJSON, func(t *features.TrackFeatures) (string, string) {
						return t.Name, t.Artist
					})
				}

				track, err := svc.TrackFeatures(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, track)
				}

				mood := svc.TrackMood(track)
				fmt.Fprintln(cmd.OutOrStdout(), renderPairs([][2]string{
					{"Name", track.Name},
					{"ID", track.ID},
					{"Artist", track.Artist},
					{"Album", track.Album},
					{"Popularity", strconv.Itoa(track.Popularity)},
					{"Duration", formatDuration(track.DurationMs)},
					{"Danceability", formatUnit(track.Danceability)},
					{"Energy", formatUnit(track.Energy)},
					{"Valence", formatUnit(track.Valence)},
					{"Tempo", fmt.Sprintf("%.0f BPM", track.Tempo)},
					{"Mood", mood.Name},
				}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the feature record as JSON")
	return cmd
}

// printLookups prints one row per id of a batch lookup. Failed ids are
// listed with their error and do not fail the command.
func printLookups[R any](cmd *cobra.Command, results []explorer.Lookup[R], asJSON bool, describe func(*R) (string, string)) error {
	if asJSON {
		records := make([]*R, 0, len(results))
		for _, r := range results {
			if r.Record != nil {
				records = append(records, r.Record)
			}
		}
		return writeJSON(cmd, records)
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			status := "error"
			if errors.Is(r.Err, features.ErrUnavailable) {
				status = "not available"
			}
			rows = append(rows, []string{r.ID, "", "", status})
			continue
		}
		name, detail := describe(r.Record)
		rows = append(rows, []string{r.ID, name, detail, "ok"})
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"ID", "Name", "Detail", "Status"},
		rows,
		nil,
	))
	return nil
}

func renderArtist(a *features.ArtistFeatures, svc service) string {
	genres := "-"
	if len(a.Genres) > 0 {
		genres = strings.Join(a.Genres, ", ")
		if a.GenreSource != "" {
			genres += " (" + a.GenreSource + ")"
		}
	}

	pairs := [][2]string{
		{"Name", a.Name},
		{"ID", a.ID},
		{"Popularity", strconv.Itoa(a.Popularity)},
		{"Followers", strconv.Itoa(a.Followers)},
		{"Genres", genres},
	}
	if mood, ok := svc.ArtistMood(a); ok {
		pairs = append(pairs, [2]string{"Mood", mood.Name})
	}
	return renderPairs(pairs)
}

func renderTopTracks(tracks []features.TopTrack) string {
	rows := make([][]string, 0, len(tracks))
	for i, t := range tracks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			t.Name,
			formatDuration(t.DurationMs),
			formatUnit(t.Danceability),
			formatUnit(t.Energy),
			formatUnit(t.Valence),
			fmt.Sprintf("%.0f", t.Tempo),
		})
	}
	return renderTable(
		[]string{"#", "Top track", "Length", "Dance", "Energy", "Valence", "BPM"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

func formatUnit(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatDuration(ms int) string {
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
