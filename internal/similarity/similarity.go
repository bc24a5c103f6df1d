// Package similarity scores how alike two artists are from their cached features.
//
// The score blends three signals with fixed weights:
//
//	score = 0.4*genre + 0.4*audio + 0.2*popularity
//
// Only artists are compared. Tracks have no similarity variant.
package similarity

import (
	"math"

	"github.com/justestif/go-spotify-music-explorer/internal/features"
)

const (
	GenreWeight      = 0.4
	AudioWeight      = 0.4
	PopularityWeight = 0.2

	// tempoScale normalizes a BPM difference into roughly the [0,1] range.
	tempoScale = 200.0
)

// Breakdown holds the sub-scores behind an artist comparison.
type Breakdown struct {
	Genre      float64 `json:"genre"`
	Audio      float64 `json:"audio"`
	Popularity float64 `json:"popularity"`
	Total      float64 `json:"total"`
}

// ScoreArtists returns the similarity of a and b. It is 0 if either is nil.
func ScoreArtists(a, b *features.ArtistFeatures) float64 {
	return Compare(a, b).Total
}

// Compare returns the full breakdown for a and b. All fields are 0 if
// either is nil.
func Compare(a, b *features.ArtistFeatures) Breakdown {
	if a == nil || b == nil {
		return Breakdown{}
	}

	bd := Breakdown{
		Genre:      GenreScore(a.Genres, b.Genres),
		Audio:      AudioScore(a, b),
		Popularity: PopularityScore(a.Popularity, b.Popularity),
	}
	bd.Total = GenreWeight*bd.Genre + AudioWeight*bd.Audio + PopularityWeight*bd.Popularity
	return bd
}

// GenreScore is the Jaccard index of the two genre sets. The union is
// floored at 1, and two empty sets count as a full match.
func GenreScore(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}

	intersection := 0
	for g := range setA {
		if _, ok := setB[g]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(max(union, 1))
}

// AudioScore compares the averaged top-track descriptors of two artists.
// It is 0 unless both have at least one top track. The result is not
// clamped; tempo gaps above 200 BPM can push it below zero.
func AudioScore(a, b *features.ArtistFeatures) float64 {
	va, okA := a.AudioProfile()
	vb, okB := b.AudioProfile()
	if !okA || !okB {
		return 0
	}
	return 1 - vectorDistance(va, vb)
}

// vectorDistance is the mean absolute difference over the four descriptors,
// with tempo scaled by 1/200.
func vectorDistance(a, b features.AudioVector) float64 {
	sum := math.Abs(a.Danceability-b.Danceability) +
		math.Abs(a.Energy-b.Energy) +
		math.Abs(a.Valence-b.Valence) +
		math.Abs(a.Tempo-b.Tempo)/tempoScale
	return sum / 4
}

// PopularityScore is 1 minus the normalized popularity gap.
func PopularityScore(a, b int) float64 {
	return 1 - math.Abs(float64(a-b))/100
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
