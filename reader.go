package readstata13

import (
	"encoding/binary"
	"io"
	"os"
	"sort"
	"strconv"
)

// A Reader decodes one dta file into a Dataset.  The decode is a
// single sequential pass; the source is never written to.
type Reader struct {
	// If true, numeric cells outside the in-range window keep their
	// raw values instead of being flagged in the missing mask.
	PreserveSentinel bool

	src io.Reader
}

// NewReader returns a Reader for the given io channel.
func NewReader(src io.Reader) *Reader {
	return &Reader{src: src}
}

// ReadFile reads the named dta file.
func ReadFile(name string) (*Dataset, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, &IOError{Err: err}
	}
	defer f.Close()
	return NewReader(f).Read()
}

// Read decodes the entire file.
func (rdr *Reader) Read() (*Dataset, error) {
	r := newBinReader(rdr.src)
	ds := &Dataset{}

	p, k, n, err := readHeader(r, ds)
	if err != nil {
		return nil, err
	}
	if k == 0 && n > 0 {
		return nil, &InconsistentCountsError{Which: "zero variables with nonzero observations"}
	}

	if err := readSchema(r, p, k, ds); err != nil {
		return nil, err
	}
	if err := readCharacteristics(r, p, ds); err != nil {
		return nil, err
	}
	if err := rdr.readData(r, p, ds, n); err != nil {
		return nil, err
	}
	if err := readStrls(r, p, ds); err != nil {
		return nil, err
	}
	if err := readValueLabels(r, p, ds); err != nil {
		return nil, err
	}

	return ds, nil
}

// readHeader determines the release from the first byte and decodes
// the rest of the header in the matching layout.  Files framed by
// <stata_dta> are releases 117+; otherwise the first byte is the
// release itself.
func readHeader(r *binReader, ds *Dataset) (profile, int, int, error) {
	r.enter("header")
	b, err := r.uint8()
	if err != nil {
		return profile{}, 0, 0, err
	}
	if b == '<' {
		return readTaggedHeader(r, ds)
	}
	return readOldHeader(r, ds, int(b))
}

func readTaggedHeader(r *binReader, ds *Dataset) (profile, int, int, error) {
	if err := r.expectTag("stata_dta><header><release>"); err != nil {
		return profile{}, 0, 0, err
	}

	tok, err := r.token(3)
	if err != nil {
		return profile{}, 0, 0, err
	}
	release, cerr := strconv.Atoi(tok)
	if cerr != nil || release != 117 && release != 118 {
		return profile{}, 0, 0, &UnsupportedReleaseError{Release: release}
	}
	p, err := profileFor(release)
	if err != nil {
		return profile{}, 0, 0, err
	}
	ds.Release = release

	if err := r.expectTag("</release><byteorder>"); err != nil {
		return profile{}, 0, 0, err
	}
	bo, err := r.token(3)
	if err != nil {
		return profile{}, 0, 0, err
	}
	switch bo {
	case "LSF":
		r.order = binary.LittleEndian
	case "MSF":
		r.order = binary.BigEndian
	default:
		return profile{}, 0, 0, &UnsupportedByteOrderError{Found: bo}
	}
	ds.ByteOrder = r.order

	if err := r.expectTag("</byteorder><K>"); err != nil {
		return profile{}, 0, 0, err
	}
	k, err := r.uint16()
	if err != nil {
		return profile{}, 0, 0, err
	}

	if err := r.expectTag("</K><N>"); err != nil {
		return profile{}, 0, 0, err
	}
	var n int
	if p.nWidth == 8 {
		x, err := r.uint64()
		if err != nil {
			return profile{}, 0, 0, err
		}
		n = int(x)
	} else {
		x, err := r.uint32()
		if err != nil {
			return profile{}, 0, 0, err
		}
		n = int(x)
	}

	if err := r.expectTag("</N><label>"); err != nil {
		return profile{}, 0, 0, err
	}
	var nlabel int
	if p.datalabelPrefix == 1 {
		x, err := r.uint8()
		if err != nil {
			return profile{}, 0, 0, err
		}
		nlabel = int(x)
	} else {
		x, err := r.uint16()
		if err != nil {
			return profile{}, 0, 0, err
		}
		nlabel = int(x)
	}
	label, err := r.bytes(nlabel)
	if err != nil {
		return profile{}, 0, 0, err
	}
	ds.Label = string(label)

	if err := r.expectTag("</label><timestamp>"); err != nil {
		return profile{}, 0, 0, err
	}
	nts, err := r.uint8()
	if err != nil {
		return profile{}, 0, 0, err
	}
	if nts != 0 && nts != 17 {
		return profile{}, 0, 0, &InconsistentCountsError{Which: "timestamp length"}
	}
	ts, err := r.bytes(int(nts))
	if err != nil {
		return profile{}, 0, 0, err
	}
	ds.TimeStamp = string(ts)

	// The map block stores seek hints for each section.  This reader
	// decodes strictly sequentially and does not use them.
	if err := r.expectTag("</timestamp></header><map>"); err != nil {
		return profile{}, 0, 0, err
	}
	for i := 0; i < 14; i++ {
		if _, err := r.uint64(); err != nil {
			return profile{}, 0, 0, err
		}
	}
	if err := r.expectTag("</map>"); err != nil {
		return profile{}, 0, 0, err
	}

	return p, int(k), n, nil
}

func readOldHeader(r *binReader, ds *Dataset, release int) (profile, int, int, error) {
	p, err := profileFor(release)
	if err != nil || p.tagged {
		return profile{}, 0, 0, &UnsupportedReleaseError{Release: release}
	}
	ds.Release = release

	bo, err := r.uint8()
	if err != nil {
		return profile{}, 0, 0, err
	}
	switch bo {
	case 1:
		r.order = binary.BigEndian
	case 2:
		r.order = binary.LittleEndian
	default:
		return profile{}, 0, 0, &UnsupportedByteOrderError{Found: strconv.Itoa(int(bo))}
	}
	ds.ByteOrder = r.order

	// Filetype byte and one unused byte.
	if err := r.skip(2); err != nil {
		return profile{}, 0, 0, err
	}

	k, err := r.uint16()
	if err != nil {
		return profile{}, 0, 0, err
	}
	n, err := r.uint32()
	if err != nil {
		return profile{}, 0, 0, err
	}

	label, err := r.bytes(p.datalabelLen)
	if err != nil {
		return profile{}, 0, 0, err
	}
	ds.Label = string(partition(label))

	if p.timestamp {
		ts, err := r.bytes(18)
		if err != nil {
			return profile{}, 0, 0, err
		}
		ds.TimeStamp = string(partition(ts))
	}

	return p, int(k), int(n), nil
}

// readSchema decodes the five parallel per-variable vectors and the
// sortlist between them.
func readSchema(r *binReader, p profile, k int, ds *Dataset) error {
	r.enter("schema")

	cols := make([]*Column, k)
	for j := range cols {
		cols[j] = &Column{}
	}

	if p.tagged {
		if err := r.expectTag("<variable_types>"); err != nil {
			return err
		}
	}
	for j := 0; j < k; j++ {
		var code uint16
		switch p.typeCodes {
		case typeCodesU16:
			x, err := r.uint16()
			if err != nil {
				return err
			}
			code = x
		default:
			x, err := r.uint8()
			if err != nil {
				return err
			}
			code = uint16(x)
		}
		t, err := decodeVarType(p, code)
		if err != nil {
			return err
		}
		cols[j].Type = t
	}

	if p.tagged {
		if err := r.expectTag("</variable_types><varnames>"); err != nil {
			return err
		}
	}
	for j := 0; j < k; j++ {
		buf, err := r.bytes(p.varnameLen)
		if err != nil {
			return err
		}
		cols[j].Name = string(partition(buf))
	}

	// The sortlist is semantically ignored and zeroed on write.
	if p.tagged {
		if err := r.expectTag("</varnames><sortlist>"); err != nil {
			return err
		}
	}
	if err := r.skip(2 * (k + 1)); err != nil {
		return err
	}

	if p.tagged {
		if err := r.expectTag("</sortlist><formats>"); err != nil {
			return err
		}
	}
	for j := 0; j < k; j++ {
		buf, err := r.bytes(p.formatLen)
		if err != nil {
			return err
		}
		cols[j].Format = string(partition(buf))
	}

	if p.tagged {
		if err := r.expectTag("</formats><value_label_names>"); err != nil {
			return err
		}
	}
	for j := 0; j < k; j++ {
		buf, err := r.bytes(p.vallabelNameLen)
		if err != nil {
			return err
		}
		cols[j].ValueLabelName = string(partition(buf))
	}

	if p.tagged {
		if err := r.expectTag("</value_label_names><variable_labels>"); err != nil {
			return err
		}
	}
	for j := 0; j < k; j++ {
		buf, err := r.bytes(p.varlabelLen)
		if err != nil {
			return err
		}
		cols[j].VarLabel = string(partition(buf))
	}
	if p.tagged {
		if err := r.expectTag("</variable_labels>"); err != nil {
			return err
		}
	}

	ds.Columns = cols
	return nil
}

// readCharacteristics decodes the free-form annotation records,
// preserving their on-disk order.  Releases 102-104 carry no block.
func readCharacteristics(r *binReader, p profile, ds *Dataset) error {
	r.enter("characteristics")
	if p.charLenWidth == 0 {
		return nil
	}

	if p.tagged {
		if err := r.expectTag("<characteristics>"); err != nil {
			return err
		}
		for {
			tok, err := r.token(4)
			if err != nil {
				return err
			}
			if tok == "</ch" {
				// The rest of </characteristics>.
				return r.expectTag("aracteristics>")
			}
			if tok != "<ch>" {
				return &MalformedTagError{Expected: "<ch>", Found: tok, Position: r.pos - 4}
			}
			length, err := r.uint32()
			if err != nil {
				return err
			}
			ch, err := readCharacteristic(r, int(length))
			if err != nil {
				return err
			}
			ds.Characteristics = append(ds.Characteristics, ch)
			if err := r.expectTag("</ch>"); err != nil {
				return err
			}
		}
	}

	for {
		dtype, err := r.uint8()
		if err != nil {
			return err
		}
		var length int
		if p.charLenWidth == 2 {
			x, err := r.uint16()
			if err != nil {
				return err
			}
			length = int(x)
		} else {
			x, err := r.uint32()
			if err != nil {
				return err
			}
			length = int(x)
		}
		if dtype == 0 && length == 0 {
			return nil
		}
		ch, err := readCharacteristic(r, length)
		if err != nil {
			return err
		}
		ds.Characteristics = append(ds.Characteristics, ch)
	}
}

func readCharacteristic(r *binReader, length int) (Characteristic, error) {
	if length < 2*charNameLen {
		return Characteristic{}, &InconsistentCountsError{Which: "characteristic record length"}
	}
	varname, err := r.bytes(charNameLen)
	if err != nil {
		return Characteristic{}, err
	}
	chname, err := r.bytes(charNameLen)
	if err != nil {
		return Characteristic{}, err
	}
	contents, err := r.bytes(length - 2*charNameLen)
	if err != nil {
		return Characteristic{}, err
	}
	return Characteristic{
		VarName:  string(partition(varname)),
		Name:     string(partition(chname)),
		Contents: string(partition(contents)),
	}, nil
}

// readData decodes the N x K cell matrix in row-major order, applying
// the missing-value policy to numeric cells.
func (rdr *Reader) readData(r *binReader, p profile, ds *Dataset, n int) error {
	r.enter("data")
	if p.tagged {
		if err := r.expectTag("<data>"); err != nil {
			return err
		}
	}

	maxw := 0
	for _, c := range ds.Columns {
		switch c.Type.Kind {
		case KindByte:
			c.data = make([]int8, n)
			c.missing = make([]bool, n)
		case KindShortInt:
			c.data = make([]int16, n)
			c.missing = make([]bool, n)
		case KindInt:
			c.data = make([]int32, n)
			c.missing = make([]bool, n)
		case KindFloat:
			c.data = make([]float32, n)
			c.missing = make([]bool, n)
		case KindDouble:
			c.data = make([]float64, n)
			c.missing = make([]bool, n)
		case KindFixedStr, KindStrL:
			c.data = make([]string, n)
			if c.Type.Len > maxw {
				maxw = c.Type.Len
			}
		}
	}
	buf := make([]byte, maxw)

	for i := 0; i < n; i++ {
		for _, c := range ds.Columns {
			switch c.Type.Kind {
			case KindFixedStr:
				if err := r.readFull(buf[:c.Type.Len]); err != nil {
					return err
				}
				c.data.([]string)[i] = string(partition(buf[:c.Type.Len]))
			case KindStrL:
				v, err := r.int32()
				if err != nil {
					return err
				}
				o, err := r.int32()
				if err != nil {
					return err
				}
				c.data.([]string)[i] = strlId(v, o)
			case KindByte:
				x, err := r.int8()
				if err != nil {
					return err
				}
				c.data.([]int8)[i] = x
				if !rdr.PreserveSentinel && missingByte(x) {
					c.missing[i] = true
				}
			case KindShortInt:
				x, err := r.int16()
				if err != nil {
					return err
				}
				c.data.([]int16)[i] = x
				if !rdr.PreserveSentinel && missingShort(x) {
					c.missing[i] = true
				}
			case KindInt:
				x, err := r.int32()
				if err != nil {
					return err
				}
				c.data.([]int32)[i] = x
				if !rdr.PreserveSentinel && missingInt(x) {
					c.missing[i] = true
				}
			case KindFloat:
				x, err := r.float32()
				if err != nil {
					return err
				}
				c.data.([]float32)[i] = x
				if !rdr.PreserveSentinel && missingFloat(x) {
					c.missing[i] = true
				}
			case KindDouble:
				x, err := r.float64()
				if err != nil {
					return err
				}
				c.data.([]float64)[i] = x
				if !rdr.PreserveSentinel && missingDouble(x) {
					c.missing[i] = true
				}
			}
		}
	}

	if p.tagged {
		if err := r.expectTag("</data>"); err != nil {
			return err
		}
	}
	return nil
}

// readStrls decodes the long-string pool of releases 117+.  Each entry
// begins with the literal GSO token; the pool ends at the closing
// </strls> tag, and any other token is a malformed tag.
func readStrls(r *binReader, p profile, ds *Dataset) error {
	if !p.tagged {
		return nil
	}
	r.enter("strls")
	if err := r.expectTag("<strls>"); err != nil {
		return err
	}
	for {
		tok, err := r.token(3)
		if err != nil {
			return err
		}
		if tok == "</s" {
			// The rest of </strls>.
			return r.expectTag("trls>")
		}
		if tok != "GSO" {
			return &MalformedTagError{Expected: "GSO", Found: tok, Position: r.pos - 3}
		}
		v, err := r.int32()
		if err != nil {
			return err
		}
		o, err := r.int32()
		if err != nil {
			return err
		}
		t, err := r.uint8()
		if err != nil {
			return err
		}
		if t != 129 && t != 130 {
			return &InconsistentCountsError{Which: "strL storage flag " + strconv.Itoa(int(t))}
		}
		length, err := r.uint32()
		if err != nil {
			return err
		}
		payload, err := r.bytes(int(length))
		if err != nil {
			return err
		}
		ds.StrLs = append(ds.StrLs, &StrL{V: v, O: o, T: t, Payload: payload})
	}
}

// readValueLabels decodes the label-set block.  For tagged releases
// the records are framed by <lbl> tags and followed by the file
// trailer; for the positional releases the records run to end of
// file.  Releases before 105 carry no block.
func readValueLabels(r *binReader, p profile, ds *Dataset) error {
	r.enter("value labels")

	if p.tagged {
		if err := r.expectTag("<value_labels>"); err != nil {
			return err
		}
		for {
			tok, err := r.token(5)
			if err != nil {
				return err
			}
			if tok == "</val" {
				// The rest of </value_labels>, then the trailer.
				if err := r.expectTag("ue_labels>"); err != nil {
					return err
				}
				return r.expectTag("</stata_dta>")
			}
			if tok != "<lbl>" {
				return &MalformedTagError{Expected: "<lbl>", Found: tok, Position: r.pos - 5}
			}
			if _, err := r.int32(); err != nil { // record length
				return err
			}
			ls, err := readLabelRecord(r, p)
			if err != nil {
				return err
			}
			ds.LabelSets = append(ds.LabelSets, ls)
			if err := r.expectTag("</lbl>"); err != nil {
				return err
			}
		}
	}

	if p.labelSetNameLen == 0 {
		return nil
	}
	for {
		nlen, done, err := r.int32EOF()
		if err != nil {
			return err
		}
		if done || nlen == 0 {
			return nil
		}
		ls, err := readLabelRecord(r, p)
		if err != nil {
			return err
		}
		ds.LabelSets = append(ds.LabelSets, ls)
	}
}

// readLabelRecord decodes one label set.  Labels may be stored in any
// offset order; the offsets are sorted for extraction and the labels
// re-projected onto their codes.
func readLabelRecord(r *binReader, p profile) (*LabelSet, error) {
	name, err := r.bytes(p.labelSetNameLen)
	if err != nil {
		return nil, err
	}
	if err := r.skip(3); err != nil { // padding
		return nil, err
	}
	nlab, err := r.int32()
	if err != nil {
		return nil, err
	}
	txtlen, err := r.int32()
	if err != nil {
		return nil, err
	}
	if nlab < 0 || txtlen < 0 {
		return nil, &InconsistentCountsError{Which: "label table sizes"}
	}

	off := make([]int32, nlab)
	for i := range off {
		if off[i], err = r.int32(); err != nil {
			return nil, err
		}
	}
	codes := make([]int32, nlab)
	for i := range codes {
		if codes[i], err = r.int32(); err != nil {
			return nil, err
		}
	}
	text, err := r.bytes(int(txtlen))
	if err != nil {
		return nil, err
	}

	for _, o := range off {
		if o < 0 || o >= txtlen {
			return nil, &InconsistentCountsError{Which: "label offsets not bounded by text length"}
		}
	}

	// Each label runs from its offset to the next greater offset (or
	// the end of the text buffer).
	bounds := make([]int32, 0, nlab+1)
	bounds = append(bounds, off...)
	bounds = append(bounds, txtlen)
	sort.Slice(bounds, func(i, j int) bool { return bounds[i] < bounds[j] })

	entries := make(map[int32]string, nlab)
	for i, o := range off {
		j := sort.Search(len(bounds), func(j int) bool { return bounds[j] > o })
		end := txtlen
		if j < len(bounds) {
			end = bounds[j]
		}
		entries[codes[i]] = string(partition(text[o:end]))
	}

	return &LabelSet{Name: string(partition(name)), Entries: entries}, nil
}
