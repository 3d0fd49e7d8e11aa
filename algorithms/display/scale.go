package display

import (
	"math"
)

// Scale maps between frequency in Hz and a perceptual display coordinate.
type Scale int

const (
	// ScaleLinear spaces display bins uniformly in Hz.
	ScaleLinear Scale = iota
	// ScaleLog spaces bins uniformly in log-frequency (musical intervals).
	ScaleLog
	// ScaleMel uses the mel scale (O'Shaughnessy 1987 formula).
	ScaleMel
	// ScaleERB uses equivalent rectangular bandwidth rate (Glasberg &
	// Moore 1990).
	ScaleERB
	// ScaleBark uses the Bark critical-band rate (Traunmueller 1990).
	ScaleBark
)

// ScaleByName maps a configuration string to a Scale, defaulting to mel.
func ScaleByName(name string) Scale {
	switch name {
	case "linear":
		return ScaleLinear
	case "log":
		return ScaleLog
	case "erb":
		return ScaleERB
	case "bark":
		return ScaleBark
	default:
		return ScaleMel
	}
}

// ToScale converts a frequency in Hz to the scale's coordinate.
func (s Scale) ToScale(hz float64) float64 {
	switch s {
	case ScaleLog:
		if hz < 1 {
			hz = 1
		}
		return math.Log2(hz)
	case ScaleMel:
		return 2595 * math.Log10(1+hz/700)
	case ScaleERB:
		return 21.4 * math.Log10(1+0.00437*hz)
	case ScaleBark:
		return 26.81*hz/(1960+hz) - 0.53
	default:
		return hz
	}
}

// ToHz converts a scale coordinate back to frequency in Hz.
func (s Scale) ToHz(v float64) float64 {
	switch s {
	case ScaleLog:
		return math.Exp2(v)
	case ScaleMel:
		return 700 * (math.Pow(10, v/2595) - 1)
	case ScaleERB:
		return (math.Pow(10, v/21.4) - 1) / 0.00437
	case ScaleBark:
		u := v + 0.53
		return 1960 * u / (26.81 - u)
	default:
		return v
	}
}
