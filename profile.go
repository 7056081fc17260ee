package readstata13

// The dta format changed field widths and framing with nearly every
// release.  All of that variation is collapsed into one table here;
// the reader and writer branch only on the fields of a profile, never
// on the release number itself (except for the 4-byte integer missing
// sentinel, which changed value at release 111).

type typeCoding int

const (
	// Releases 102-108, 110 and 112 store variable types as ASCII
	// letters ('b','i','l','f','d') with fixed strings offset by 127.
	typeCodesASCII typeCoding = iota

	// Releases 111 and 113-115 store a single byte, 251-255 for the
	// numeric types.
	typeCodesU8

	// Releases 117+ store a 2-byte code, 65526-65530 for the numeric
	// types, 32768 for strL.
	typeCodesU16
)

// charNameLen is the width of the varname and charname fields inside a
// characteristics record, identical across every release that carries
// the block.
const charNameLen = 33

type profile struct {
	release int

	// tagged is true for the self-describing layouts (117+) framed by
	// literal ASCII tags.
	tagged bool

	// Fixed width of the dataset label field in positional releases.
	datalabelLen int

	// Width in bytes of the dataset label length prefix in tagged
	// releases, and the maximum label length that fits its buffer.
	datalabelPrefix int
	datalabelMax    int

	// timestamp is false for releases 102-104, which carry none.
	timestamp bool

	varnameLen      int
	formatLen       int
	varlabelLen     int
	vallabelNameLen int

	// Width of a label-set name in the value-label block; 0 when the
	// release carries no value-label block at all.
	labelSetNameLen int

	// Width in bytes of the observation counter.
	nWidth int

	typeCodes typeCoding

	// Width of the length field in a characteristics record; 0 when
	// the release carries no characteristics block.
	charLenWidth int

	// Longest fixed-width string the type codes admit.  The ASCII
	// scheme is further limited to 128 by its one-byte len+127 code.
	maxStrf int
}

// profileFor returns the layout constants for one dta release.  Any
// release outside the supported set, including the never-issued 109
// and 116, is rejected.
func profileFor(release int) (profile, error) {
	p := profile{release: release, nWidth: 4, maxStrf: 244}

	switch release {
	case 102, 103, 104:
		p.datalabelLen = 31
		p.varnameLen = 10
		p.formatLen = 8
		p.varlabelLen = 33
		p.vallabelNameLen = 10
	case 105, 106:
		p.datalabelLen = 32
		p.timestamp = true
		p.varnameLen = 10
		p.formatLen = 13
		p.varlabelLen = 33
		p.vallabelNameLen = 10
		p.labelSetNameLen = 10
		p.charLenWidth = 2
	case 107, 108:
		p.datalabelLen = 82
		p.timestamp = true
		p.varnameLen = 10
		p.formatLen = 13
		p.varlabelLen = 82
		p.vallabelNameLen = 10
		p.labelSetNameLen = 10
		p.charLenWidth = 2
	case 110, 111, 112, 113:
		p.datalabelLen = 82
		p.timestamp = true
		p.varnameLen = 34
		p.formatLen = 13
		p.varlabelLen = 82
		p.vallabelNameLen = 34
		p.labelSetNameLen = 34
		p.charLenWidth = 4
	case 114, 115:
		p.datalabelLen = 82
		p.timestamp = true
		p.varnameLen = 34
		p.formatLen = 50
		p.varlabelLen = 82
		p.vallabelNameLen = 34
		p.labelSetNameLen = 34
		p.charLenWidth = 4
	case 117:
		p.tagged = true
		p.datalabelPrefix = 1
		p.datalabelMax = 80
		p.timestamp = true
		p.varnameLen = 33
		p.formatLen = 49
		p.varlabelLen = 81
		p.vallabelNameLen = 33
		p.labelSetNameLen = 33
		p.charLenWidth = 4
		p.maxStrf = 2045
	case 118:
		p.tagged = true
		p.datalabelPrefix = 2
		p.datalabelMax = 320
		p.timestamp = true
		p.varnameLen = 129
		p.formatLen = 57
		p.varlabelLen = 321
		p.vallabelNameLen = 129
		p.labelSetNameLen = 129
		p.nWidth = 8
		p.charLenWidth = 4
		p.maxStrf = 2045
	default:
		return profile{}, &UnsupportedReleaseError{Release: release}
	}

	switch release {
	case 111, 113, 114, 115:
		p.typeCodes = typeCodesU8
	case 117, 118:
		p.typeCodes = typeCodesU16
	default:
		p.typeCodes = typeCodesASCII
	}

	return p, nil
}
