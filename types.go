package readstata13

import "fmt"

// VarKind enumerates the physical cell representations a dta column
// can have.
type VarKind int

const (
	KindByte VarKind = iota
	KindShortInt
	KindInt
	KindFloat
	KindDouble
	KindFixedStr
	KindStrL
)

// VarType identifies the type of a column.  Len carries the byte width
// for KindFixedStr and is zero otherwise.
type VarType struct {
	Kind VarKind
	Len  int
}

var (
	ByteType     = VarType{Kind: KindByte}
	ShortIntType = VarType{Kind: KindShortInt}
	IntType      = VarType{Kind: KindInt}
	FloatType    = VarType{Kind: KindFloat}
	DoubleType   = VarType{Kind: KindDouble}
	StrLType     = VarType{Kind: KindStrL}
)

// FixedStrType returns the type of a fixed-width string column of n
// bytes.
func FixedStrType(n int) VarType {
	return VarType{Kind: KindFixedStr, Len: n}
}

func (t VarType) String() string {
	switch t.Kind {
	case KindByte:
		return "byte"
	case KindShortInt:
		return "int"
	case KindInt:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindFixedStr:
		return fmt.Sprintf("str%d", t.Len)
	case KindStrL:
		return "strL"
	}
	return fmt.Sprintf("VarType(%d)", int(t.Kind))
}

// On-disk variable type codes for the 2-byte scheme of releases 117+.
const (
	codeStrL     uint16 = 32768
	codeDouble   uint16 = 65526
	codeFloat    uint16 = 65527
	codeInt      uint16 = 65528
	codeShortInt uint16 = 65529
	codeByte     uint16 = 65530
)

// decodeVarType translates one on-disk variable type code into a
// VarType under the given release profile.
func decodeVarType(p profile, code uint16) (VarType, error) {
	switch p.typeCodes {
	case typeCodesASCII:
		switch byte(code) {
		case 'b':
			return ByteType, nil
		case 'i':
			return ShortIntType, nil
		case 'l':
			return IntType, nil
		case 'f':
			return FloatType, nil
		case 'd':
			return DoubleType, nil
		}
		// 127 is Stata's fixed string offset.
		n := int(code) - 127
		if n < 1 || n > p.maxStrf {
			return VarType{}, &SchemaViolationError{Detail: fmt.Sprintf("variable type code %d is not valid in release %d", code, p.release)}
		}
		return FixedStrType(n), nil

	case typeCodesU8:
		switch code {
		case 251:
			return ByteType, nil
		case 252:
			return ShortIntType, nil
		case 253:
			return IntType, nil
		case 254:
			return FloatType, nil
		case 255:
			return DoubleType, nil
		}
		if code < 1 || int(code) > p.maxStrf {
			return VarType{}, &SchemaViolationError{Detail: fmt.Sprintf("variable type code %d is not valid in release %d", code, p.release)}
		}
		return FixedStrType(int(code)), nil

	default:
		switch code {
		case codeByte:
			return ByteType, nil
		case codeShortInt:
			return ShortIntType, nil
		case codeInt:
			return IntType, nil
		case codeFloat:
			return FloatType, nil
		case codeDouble:
			return DoubleType, nil
		case codeStrL:
			return StrLType, nil
		}
		if code >= 1 && int(code) <= p.maxStrf {
			return FixedStrType(int(code)), nil
		}
		return VarType{}, &SchemaViolationError{Detail: fmt.Sprintf("variable type code %d is not valid in release %d", code, p.release)}
	}
}

// encodeVarType translates a VarType into its canonical on-disk code
// under the given release profile.  The code fits in the low byte for
// the single-byte schemes.
func encodeVarType(p profile, t VarType) (uint16, error) {
	switch p.typeCodes {
	case typeCodesASCII:
		switch t.Kind {
		case KindByte:
			return 'b', nil
		case KindShortInt:
			return 'i', nil
		case KindInt:
			return 'l', nil
		case KindFloat:
			return 'f', nil
		case KindDouble:
			return 'd', nil
		case KindFixedStr:
			// The code is len+127 in a single byte, so the ASCII
			// scheme tops out at 128 rather than the 244 of the
			// one-byte numeric scheme.
			if t.Len >= 1 && t.Len <= 255-127 {
				return uint16(t.Len + 127), nil
			}
		}

	case typeCodesU8:
		switch t.Kind {
		case KindByte:
			return 251, nil
		case KindShortInt:
			return 252, nil
		case KindInt:
			return 253, nil
		case KindFloat:
			return 254, nil
		case KindDouble:
			return 255, nil
		case KindFixedStr:
			if t.Len >= 1 && t.Len <= p.maxStrf {
				return uint16(t.Len), nil
			}
		}

	default:
		switch t.Kind {
		case KindByte:
			return codeByte, nil
		case KindShortInt:
			return codeShortInt, nil
		case KindInt:
			return codeInt, nil
		case KindFloat:
			return codeFloat, nil
		case KindDouble:
			return codeDouble, nil
		case KindStrL:
			return codeStrL, nil
		case KindFixedStr:
			if t.Len >= 1 && t.Len <= p.maxStrf {
				return uint16(t.Len), nil
			}
		}
	}
	return 0, &UnrepresentableTypeError{Type: t, Release: p.release}
}
