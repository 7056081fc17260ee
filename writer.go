package readstata13

import (
	"encoding/binary"
	"io"
	"os"
	"sort"
	"strconv"
)

// A Writer encodes Datasets to one io channel at a fixed target
// release.
type Writer struct {
	dst     io.Writer
	release int
}

// NewWriter returns a Writer that encodes at the given dta release.
func NewWriter(dst io.Writer, release int) *Writer {
	return &Writer{dst: dst, release: release}
}

// WriteFile writes the dataset to the named file at the given release.
// The file is created (or truncated) and closed on every exit path.
func WriteFile(name string, ds *Dataset, release int) error {
	f, err := os.Create(name)
	if err != nil {
		return &IOError{Err: err}
	}
	if err := NewWriter(f, release).Write(ds); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return &IOError{Err: err}
	}
	return nil
}

// Write validates the dataset and encodes it.  Datasets holding a
// column the target release cannot represent are refused before any
// byte is written.
func (wtr *Writer) Write(ds *Dataset) error {
	p, err := profileFor(wtr.release)
	if err != nil {
		return err
	}
	if err := ds.check(); err != nil {
		return err
	}
	for _, c := range ds.Columns {
		if _, err := encodeVarType(p, c.Type); err != nil {
			return err
		}
	}

	order := ds.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	w := newBinWriter(wtr.dst, order)

	k := len(ds.Columns)
	n := ds.RowCount()

	writeHeader(w, p, ds, k, n)
	writeSchema(w, p, ds, k)
	writeCharacteristics(w, p, ds)
	refs := writeData(w, p, ds, n)
	writeStrls(w, p, ds, refs)
	writeValueLabels(w, p, ds)
	if p.tagged {
		w.tag("</stata_dta>")
	}

	return w.flush()
}

func writeHeader(w *binWriter, p profile, ds *Dataset, k, n int) {
	if !p.tagged {
		w.uint8(uint8(p.release))
		if w.order == binary.BigEndian {
			w.uint8(1)
		} else {
			w.uint8(2)
		}
		w.uint8(1) // filetype
		w.uint8(0) // unused
		w.uint16(uint16(k))
		w.uint32(uint32(n))
		w.padded(ds.Label, p.datalabelLen)
		if p.timestamp {
			w.padded(ds.TimeStamp, 18)
		}
		return
	}

	w.tag("<stata_dta><header><release>")
	w.tag(strconv.Itoa(p.release))
	w.tag("</release><byteorder>")
	if w.order == binary.BigEndian {
		w.tag("MSF")
	} else {
		w.tag("LSF")
	}
	w.tag("</byteorder><K>")
	w.uint16(uint16(k))
	w.tag("</K><N>")
	if p.nWidth == 8 {
		w.uint64(uint64(n))
	} else {
		w.uint32(uint32(n))
	}

	w.tag("</N><label>")
	label := ds.Label
	if len(label) > p.datalabelMax {
		label = label[:p.datalabelMax]
	}
	if p.datalabelPrefix == 1 {
		w.uint8(uint8(len(label)))
	} else {
		w.uint16(uint16(len(label)))
	}
	w.tag(label)

	w.tag("</label><timestamp>")
	if ds.TimeStamp == "" {
		w.uint8(0)
	} else {
		w.uint8(17)
		w.tag(ds.TimeStamp)
	}
	w.tag("</timestamp></header><map>")

	// Seek hints; zero entries are accepted by readers.
	for i := 0; i < 14; i++ {
		w.uint64(0)
	}
	w.tag("</map>")
}

func writeSchema(w *binWriter, p profile, ds *Dataset, k int) {
	if p.tagged {
		w.tag("<variable_types>")
	}
	for _, c := range ds.Columns {
		code, _ := encodeVarType(p, c.Type)
		if p.typeCodes == typeCodesU16 {
			w.uint16(code)
		} else {
			w.uint8(uint8(code))
		}
	}

	if p.tagged {
		w.tag("</variable_types><varnames>")
	}
	for _, c := range ds.Columns {
		w.padded(c.Name, p.varnameLen)
	}

	if p.tagged {
		w.tag("</varnames><sortlist>")
	}
	for i := 0; i < k+1; i++ {
		w.uint16(0)
	}

	if p.tagged {
		w.tag("</sortlist><formats>")
	}
	for _, c := range ds.Columns {
		w.padded(c.Format, p.formatLen)
	}

	if p.tagged {
		w.tag("</formats><value_label_names>")
	}
	for _, c := range ds.Columns {
		w.padded(c.ValueLabelName, p.vallabelNameLen)
	}

	if p.tagged {
		w.tag("</value_label_names><variable_labels>")
	}
	for _, c := range ds.Columns {
		w.padded(c.VarLabel, p.varlabelLen)
	}
	if p.tagged {
		w.tag("</variable_labels>")
	}
}

// writeCharacteristics emits the annotation records in their stored
// order.  Releases 102-104 carry no block, so characteristics are
// dropped when targeting them.
func writeCharacteristics(w *binWriter, p profile, ds *Dataset) {
	if p.charLenWidth == 0 {
		return
	}

	if p.tagged {
		w.tag("<characteristics>")
		for _, ch := range ds.Characteristics {
			w.tag("<ch>")
			w.uint32(uint32(2*charNameLen + len(ch.Contents) + 1))
			w.padded(ch.VarName, charNameLen)
			w.padded(ch.Name, charNameLen)
			w.tag(ch.Contents)
			w.uint8(0)
			w.tag("</ch>")
		}
		w.tag("</characteristics>")
		return
	}

	for _, ch := range ds.Characteristics {
		w.uint8(1)
		length := 2*charNameLen + len(ch.Contents) + 1
		if p.charLenWidth == 2 {
			w.uint16(uint16(length))
		} else {
			w.uint32(uint32(length))
		}
		w.padded(ch.VarName, charNameLen)
		w.padded(ch.Name, charNameLen)
		w.tag(ch.Contents)
		w.uint8(0)
	}

	// Terminating record: both fields zero.
	w.uint8(0)
	if p.charLenWidth == 2 {
		w.uint16(0)
	} else {
		w.uint32(0)
	}
}

// writeData emits the cell matrix and returns the set of strL ids the
// data references, for the pool writer.
func writeData(w *binWriter, p profile, ds *Dataset, n int) map[string]bool {
	if p.tagged {
		w.tag("<data>")
	}

	var refs map[string]bool
	for i := 0; i < n; i++ {
		for _, c := range ds.Columns {
			switch c.Type.Kind {
			case KindFixedStr:
				w.padded(c.data.([]string)[i], c.Type.Len)
			case KindStrL:
				id := c.data.([]string)[i]
				v, o, _ := parseStrlRef(id) // validated by check
				w.int32(v)
				w.int32(o)
				if refs == nil {
					refs = make(map[string]bool)
				}
				refs[id] = true
			case KindByte:
				x := c.data.([]int8)[i]
				if c.IsMissing(i) {
					x = byteSentinel
				}
				w.int8(x)
			case KindShortInt:
				x := c.data.([]int16)[i]
				if c.IsMissing(i) {
					x = shortSentinel
				}
				w.int16(x)
			case KindInt:
				x := c.data.([]int32)[i]
				if c.IsMissing(i) {
					x = intSentinel(p.release)
				}
				w.int32(x)
			case KindFloat:
				x := c.data.([]float32)[i]
				if c.IsMissing(i) {
					x = floatSentinel
				}
				w.float32(x)
			case KindDouble:
				x := c.data.([]float64)[i]
				if c.IsMissing(i) {
					x = doubleSentinel
				}
				w.float64(x)
			}
		}
	}

	if p.tagged {
		w.tag("</data>")
	}
	return refs
}

// writeStrls emits the pool entries the data section references, in
// pool order.
func writeStrls(w *binWriter, p profile, ds *Dataset, refs map[string]bool) {
	if !p.tagged {
		return
	}
	w.tag("<strls>")
	for _, s := range ds.StrLs {
		if !refs[s.Id()] {
			continue
		}
		w.tag("GSO")
		w.int32(s.V)
		w.int32(s.O)
		w.uint8(s.T)
		w.uint32(uint32(len(s.Payload)))
		w.write(s.Payload)
	}
	w.tag("</strls>")
}

// writeValueLabels emits one record per label set, label text packed
// in code order.
func writeValueLabels(w *binWriter, p profile, ds *Dataset) {
	if p.tagged {
		w.tag("<value_labels>")
	} else if p.labelSetNameLen == 0 {
		return
	}

	for _, ls := range ds.LabelSets {
		codes := make([]int32, 0, len(ls.Entries))
		for code := range ls.Entries {
			codes = append(codes, code)
		}
		sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

		off := make([]int32, len(codes))
		var text []byte
		for i, code := range codes {
			off[i] = int32(len(text))
			text = append(text, ls.Entries[code]...)
			text = append(text, 0)
		}

		nlen := 4 + 4 + 8*len(codes) + len(text)

		if p.tagged {
			w.tag("<lbl>")
		}
		w.int32(int32(nlen))
		w.padded(ls.Name, p.labelSetNameLen)
		w.write([]byte{0, 0, 0}) // padding
		w.int32(int32(len(codes)))
		w.int32(int32(len(text)))
		for _, o := range off {
			w.int32(o)
		}
		for _, code := range codes {
			w.int32(code)
		}
		w.write(text)
		if p.tagged {
			w.tag("</lbl>")
		}
	}

	if p.tagged {
		w.tag("</value_labels>")
	}
}
