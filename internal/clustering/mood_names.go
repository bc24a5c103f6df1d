package clustering

import "github.com/justestif/go-spotify-music-explorer/internal/features"

// generateMoodName creates a descriptive name from an audio vector.
// Uses a 2x2 energy/valence quadrant system with a danceability modifier.
//
// Quadrants:
//   - High Energy + High Valence = "Upbeat Party"
//   - High Energy + Low Valence  = "Intense & Dark"
//   - Low Energy  + High Valence = "Chill & Happy"
//   - Low Energy  + Low Valence  = "Reflective & Melancholy"
//
// Danceability modifier: if > 0.7, appends "(Danceable)" to the name.
func generateMoodName(v features.AudioVector) string {
	var baseName string

	highEnergy := v.Energy > 0.6
	highValence := v.Valence > 0.5

	switch {
	case highEnergy && highValence:
		baseName = "Upbeat Party"
	case highEnergy && !highValence:
		baseName = "Intense & Dark"
	case !highEnergy && highValence:
		baseName = "Chill & Happy"
	default: // low energy, low valence
		baseName = "Reflective & Melancholy"
	}

	if v.Danceability > 0.7 {
		return baseName + " (Danceable)"
	}

	return baseName
}

// MoodCategory represents a mood classification for display purposes.
type MoodCategory struct {
	Name        string  `json:"name"`
	Energy      float64 `json:"energy"`
	Valence     float64 `json:"valence"`
	Description string  `json:"description"`
}

// GetMoodCategory returns the mood category for an audio vector.
func GetMoodCategory(v features.AudioVector) MoodCategory {
	var description string
	switch {
	case v.Energy > 0.6 && v.Valence > 0.5:
		description = "High-energy, positive vibes - perfect for dancing and celebrations"
	case v.Energy > 0.6 && v.Valence <= 0.5:
		description = "Intense, driving energy with darker emotional tones"
	case v.Energy <= 0.6 && v.Valence > 0.5:
		description = "Relaxed and uplifting - great for unwinding"
	default:
		description = "Contemplative and introspective - ideal for quiet moments"
	}

	return MoodCategory{
		Name:        generateMoodName(v),
		Energy:      v.Energy,
		Valence:     v.Valence,
		Description: description,
	}
}
