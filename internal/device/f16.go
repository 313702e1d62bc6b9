package device

import "math"

// Float32 <-> Float16 conversion used to emulate half-precision rendering.
// Subnormal halves are flushed to zero; that matches how the reduced
// precision path treats values below the audible noise floor.

func Float32ToFloat16(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := (bits >> 31) & 0x1
	exp := (bits >> 23) & 0xff
	mant := bits & 0x7fffff

	if exp == 0 {
		return uint16(sign << 15)
	} else if exp == 0xff {
		return uint16((sign << 15) | 0x7c00 | (mant >> 13))
	}

	newExp := int(exp) - 127 + 15
	if newExp < 0 {
		return uint16(sign << 15)
	} else if newExp >= 31 {
		return uint16((sign << 15) | 0x7c00)
	}

	return uint16((sign << 15) | (uint32(newExp) << 10) | (mant >> 13))
}

func Float16ToFloat32(f uint16) float32 {
	sign := (uint32(f) >> 15) & 0x1
	exp := (uint32(f) >> 10) & 0x1f
	mant := uint32(f) & 0x3ff

	if exp == 0 {
		return math.Float32frombits(sign << 31)
	} else if exp == 31 {
		if mant == 0 {
			return math.Float32frombits((sign << 31) | 0x7f800000)
		}
		return math.Float32frombits((sign << 31) | 0x7f800000 | (mant << 13))
	}

	newExp := exp - 15 + 127
	return math.Float32frombits((sign << 31) | (newExp << 23) | (mant << 13))
}

// RoundF16 rounds a value through half precision.
func RoundF16(f float32) float32 {
	return Float16ToFloat32(Float32ToFloat16(f))
}

// RoundSliceF16 rounds a buffer through half precision in place.
func RoundSliceF16(s []float32) {
	for i, v := range s {
		s[i] = RoundF16(v)
	}
}
