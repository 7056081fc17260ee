package readstata13

import "math"

// Stata reserves the top of each numeric domain for missing values.
// Any on-disk value outside the in-range window below decodes as
// missing; each type has one canonical sentinel written for missing
// cells.  The float and double windows end at mantissas of 0xFFFFFE
// and 0xFFFFFFFFFFFFF, written here as hex float literals; each
// floating sentinel is the power of two one binade above its window.
const (
	byteRangeMin  int8  = -127
	byteRangeMax  int8  = 100
	byteSentinel  int8  = 101
	shortRangeMin int16 = -32767
	shortRangeMax int16 = 32740
	shortSentinel int16 = 32741
	intRangeMin   int32 = -2147483647
	intRangeMax   int32 = 2147483620

	maxRangeFloat  float32 = 0x1.fffffep+126
	maxRangeDouble float64 = 0x1.fffffffffffffp+1022

	floatSentinel  float32 = 0x1p+127
	doubleSentinel float64 = 0x1p+1023
)

// Releases 111+ write 2^31-27 for a missing 4-byte integer; older
// releases used the maximum signed value.
const (
	intSentinelNew int32 = 2147483621
	intSentinelOld int32 = 2147483647
)

func intSentinel(release int) int32 {
	if release >= 111 {
		return intSentinelNew
	}
	return intSentinelOld
}

func missingByte(x int8) bool {
	return x < byteRangeMin || x > byteRangeMax
}

func missingShort(x int16) bool {
	return x < shortRangeMin || x > shortRangeMax
}

func missingInt(x int32) bool {
	return x < intRangeMin || x > intRangeMax
}

// Negative infinity sits below the window but is a representable Stata
// value, so it passes through as in range.
func missingFloat(x float32) bool {
	if math.IsInf(float64(x), -1) {
		return false
	}
	return x < -maxRangeFloat || x > maxRangeFloat
}

func missingDouble(x float64) bool {
	if math.IsInf(x, -1) {
		return false
	}
	return x < -maxRangeDouble || x > maxRangeDouble
}
