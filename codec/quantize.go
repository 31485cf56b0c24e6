package codec

import "math"

// int16Sentinel is the encoded value reserved for NaN, matching the
// original Rust writer's `val.is_nan() => i16::MAX` rule.
const int16Sentinel = math.MaxInt16

// QuantizeLinear maps a float64 value to the int16 wire representation
// used by the int16-delta-pfor family: q = clamp(round(scale*v+offset),
// [MinInt16, MaxInt16-1]), with NaN mapped to the sentinel MaxInt16.
func QuantizeLinear(v float64, scale, offset float64) int16 {
	if math.IsNaN(v) {
		return int16Sentinel
	}
	return clampToInt16(math.Round(scale*v + offset))
}

// DequantizeLinear reverses QuantizeLinear; the sentinel decodes to NaN.
func DequantizeLinear(q int16, scale, offset float64) float64 {
	if q == int16Sentinel {
		return math.NaN()
	}
	return (float64(q) - offset) / scale
}

// QuantizeLog maps a value through the log10-transform variant used by
// int16-log-delta-pfor: q = clamp(round(scale*(log10(v)+1)+offset), ...).
func QuantizeLog(v float64, scale, offset float64) int16 {
	if math.IsNaN(v) {
		return int16Sentinel
	}
	return clampToInt16(math.Round(scale*(math.Log10(v)+1) + offset))
}

// DequantizeLog reverses QuantizeLog.
func DequantizeLog(q int16, scale, offset float64) float64 {
	if q == int16Sentinel {
		return math.NaN()
	}
	logged := (float64(q) - offset) / scale
	return math.Pow(10, logged-1)
}

func clampToInt16(v float64) int16 {
	const minV = float64(math.MinInt16)
	const maxV = float64(math.MaxInt16 - 1)
	if v < minV {
		return math.MinInt16
	}
	if v > maxV {
		return math.MaxInt16 - 1
	}
	return int16(v)
}
