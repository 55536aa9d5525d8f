package domain

// PlaybackRates is the option set offered by the speed control and the context menu.
var PlaybackRates = []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2}

const DefaultPlaybackRate = 1.0

func rateIndex(rate float64) int {
	for i, r := range PlaybackRates {
		if r == rate {
			return i
		}
	}
	return -1
}

// NextRate returns the option after rate. A rate outside the table snaps to 1x.
func NextRate(rate float64) float64 {
	i := rateIndex(rate)
	if i < 0 {
		return DefaultPlaybackRate
	}
	return PlaybackRates[min(len(PlaybackRates)-1, i+1)]
}

// PrevRate returns the option before rate. A rate outside the table snaps to 1x.
func PrevRate(rate float64) float64 {
	i := rateIndex(rate)
	if i < 0 {
		return DefaultPlaybackRate
	}
	return PlaybackRates[max(0, i-1)]
}

func IsPlaybackRateOption(rate float64) bool {
	return rateIndex(rate) >= 0
}
