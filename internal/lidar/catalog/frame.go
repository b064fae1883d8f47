package catalog

import (
	"fmt"
	"strings"
)

// Scene is the driving environment of a frame.
type Scene string

const (
	SceneUrban       Scene = "Urban"
	SceneHighway     Scene = "Highway"
	SceneResidential Scene = "Residential"
	SceneCountry     Scene = "Country"
)

// Weather is the weather condition of a frame.
type Weather string

const (
	WeatherClear    Weather = "Clear"
	WeatherOvercast Weather = "Overcast"
	WeatherRain     Weather = "Rain"
)

// TimeOfDay is the lighting period of a frame.
type TimeOfDay string

const (
	TimeMorning TimeOfDay = "Morning"
	TimeNoon    TimeOfDay = "Noon"
	TimeEvening TimeOfDay = "Evening"
)

// Difficulty is the KITTI-style difficulty rating of a frame.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "Easy"
	DifficultyModerate Difficulty = "Moderate"
	DifficultyHard     Difficulty = "Hard"
)

// Enumerations in draw order. Generation indexes into these, so reordering
// them changes the catalog produced for a given seed.
var (
	Scenes       = []Scene{SceneUrban, SceneHighway, SceneResidential, SceneCountry}
	Weathers     = []Weather{WeatherClear, WeatherOvercast, WeatherRain}
	TimesOfDay   = []TimeOfDay{TimeMorning, TimeNoon, TimeEvening}
	Difficulties = []Difficulty{DifficultyEasy, DifficultyModerate, DifficultyHard}
)

// Lower returns the lower-case scene name used in report text.
func (s Scene) Lower() string { return strings.ToLower(string(s)) }

// Lower returns the lower-case weather name used in report text.
func (w Weather) Lower() string { return strings.ToLower(string(w)) }

// ParseScene parses a scene name case-insensitively.
func ParseScene(s string) (Scene, error) {
	for _, v := range Scenes {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown scene %q", s)
}

// ParseWeather parses a weather name case-insensitively.
func ParseWeather(s string) (Weather, error) {
	for _, v := range Weathers {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown weather %q", s)
}

// ParseTimeOfDay parses a time-of-day name case-insensitively.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, v := range TimesOfDay {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown time of day %q", s)
}

// ParseDifficulty parses a difficulty name case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	for _, v := range Difficulties {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Frame is one synthetic LiDAR scan.
type Frame struct {
	ID          string     `json:"id"`
	PointCount  int        `json:"point_count"`
	ObjectCount int        `json:"object_count"`
	Scene       Scene      `json:"scene"`
	Weather     Weather    `json:"weather"`
	TimeOfDay   TimeOfDay  `json:"time_of_day"`
	Difficulty  Difficulty `json:"difficulty"`
}

// FrameID formats a catalog index as a six-digit zero-padded frame id.
func FrameID(i int) string {
	return fmt.Sprintf("%06d", i)
}
