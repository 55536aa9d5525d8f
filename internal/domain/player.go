package domain

import (
	"encoding/json"
	"math"
)

// MediaState is the snapshot a Media Source broadcasts after every observable change.
// Duration is NaN until metadata has loaded.
type MediaState struct {
	IsPlaying    bool    `json:"is_playing"`
	CurrentTime  float64 `json:"current_time"`
	Duration     float64 `json:"duration"`
	Volume       float64 `json:"volume"`
	Muted        bool    `json:"muted"`
	PlaybackRate float64 `json:"playback_rate"`
	IsSeeking    bool    `json:"is_seeking"`
	Buffered     float64 `json:"buffered"`
}

// NewMediaState returns the state of a source with nothing loaded.
func NewMediaState() MediaState {
	return MediaState{
		IsPlaying:    false,
		CurrentTime:  0,
		Duration:     math.NaN(),
		Volume:       1,
		Muted:        false,
		PlaybackRate: 1,
	}
}

// HasDuration reports whether the duration is known. NaN, infinite and zero durations are
// all treated as unknown.
func (s MediaState) HasDuration() bool {
	return IsKnownDuration(s.Duration)
}

func IsKnownDuration(d float64) bool {
	return !math.IsNaN(d) && !math.IsInf(d, 0) && d > 0
}

// Progress is CurrentTime as a fraction of Duration, 0 when the duration is unknown.
func (s MediaState) Progress() float64 {
	if !s.HasDuration() {
		return 0
	}
	return math.Max(0, math.Min(1, s.CurrentTime/s.Duration))
}

type mediaStateJSON struct {
	IsPlaying    bool     `json:"is_playing"`
	CurrentTime  float64  `json:"current_time"`
	Duration     *float64 `json:"duration"`
	Volume       float64  `json:"volume"`
	Muted        bool     `json:"muted"`
	PlaybackRate float64  `json:"playback_rate"`
	IsSeeking    bool     `json:"is_seeking"`
	Buffered     float64  `json:"buffered"`
}

// MarshalJSON encodes an unknown duration as null since JSON has no NaN.
func (s MediaState) MarshalJSON() ([]byte, error) {
	out := mediaStateJSON{
		IsPlaying:    s.IsPlaying,
		CurrentTime:  finiteOr(s.CurrentTime, 0),
		Volume:       finiteOr(s.Volume, 0),
		Muted:        s.Muted,
		PlaybackRate: finiteOr(s.PlaybackRate, 1),
		IsSeeking:    s.IsSeeking,
		Buffered:     finiteOr(s.Buffered, 0),
	}
	if !math.IsNaN(s.Duration) && !math.IsInf(s.Duration, 0) {
		d := s.Duration
		out.Duration = &d
	}

	return json.Marshal(out)
}

func (s *MediaState) UnmarshalJSON(data []byte) error {
	var in mediaStateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*s = MediaState{
		IsPlaying:    in.IsPlaying,
		CurrentTime:  in.CurrentTime,
		Duration:     math.NaN(),
		Volume:       in.Volume,
		Muted:        in.Muted,
		PlaybackRate: in.PlaybackRate,
		IsSeeking:    in.IsSeeking,
		Buffered:     in.Buffered,
	}
	if in.Duration != nil {
		s.Duration = *in.Duration
	}

	return nil
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
