// Package generic provides the PDF object model shared by the reader,
// the incremental writer and the signature layer.
package generic

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
)

// Object is the base interface for all PDF objects.
type Object interface {
	// WriteTo serializes the object in PDF syntax.
	WriteTo(w io.Writer) error
}

// Null represents the PDF null value.
type Null struct{}

// WriteTo implements Object.
func (Null) WriteTo(w io.Writer) error {
	_, err := io.WriteString(w, "null")
	return err
}

// Boolean represents a PDF boolean.
type Boolean bool

// WriteTo implements Object.
func (b Boolean) WriteTo(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatBool(bool(b)))
	return err
}

// Integer represents a PDF integer.
type Integer int64

// WriteTo implements Object.
func (i Integer) WriteTo(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatInt(int64(i), 10))
	return err
}

// Real represents a PDF real number.
type Real float64

// WriteTo implements Object.
func (r Real) WriteTo(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatFloat(float64(r), 'f', -1, 64))
	return err
}

// Name represents a PDF name object, stored without the leading slash.
type Name string

// WriteTo implements Object.
func (n Name) WriteTo(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c < '!' || c > '~' || c == '#' || c == '/' || c == '%' ||
			c == '(' || c == ')' || c == '<' || c == '>' ||
			c == '[' || c == ']' || c == '{' || c == '}' {
			fmt.Fprintf(&buf, "#%02X", c)
		} else {
			buf.WriteByte(c)
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// String represents a PDF string object.
type String struct {
	Value []byte
	Hex   bool
}

// NewLiteralString creates a literal string object.
func NewLiteralString(s string) *String {
	return &String{Value: []byte(s)}
}

// NewHexString creates a hex string object.
func NewHexString(data []byte) *String {
	return &String{Value: data, Hex: true}
}

// NewTextString creates a PDF text string, using UTF-16BE with a BOM when
// the text does not fit in a single byte per rune.
func NewTextString(s string) *String {
	wide := false
	for _, r := range s {
		if r > 0xFF {
			wide = true
			break
		}
	}
	if !wide {
		return &String{Value: []byte(s)}
	}
	var buf bytes.Buffer
	buf.Write([]byte{0xFE, 0xFF})
	for _, r := range s {
		buf.WriteByte(byte(r >> 8))
		buf.WriteByte(byte(r))
	}
	return &String{Value: buf.Bytes()}
}

// WriteTo implements Object.
func (s *String) WriteTo(w io.Writer) error {
	if s.Hex {
		_, err := fmt.Fprintf(w, "<%s>", hex.EncodeToString(s.Value))
		return err
	}
	var buf bytes.Buffer
	buf.WriteByte('(')
	for _, b := range s.Value {
		switch b {
		case '\\', '(', ')':
			buf.WriteByte('\\')
			buf.WriteByte(b)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if b < 32 || b > 126 {
				fmt.Fprintf(&buf, `\%03o`, b)
			} else {
				buf.WriteByte(b)
			}
		}
	}
	buf.WriteByte(')')
	_, err := w.Write(buf.Bytes())
	return err
}

// Text decodes the string value as text, honoring a UTF-16BE BOM.
func (s *String) Text() string {
	v := s.Value
	if len(v) >= 2 && v[0] == 0xFE && v[1] == 0xFF {
		var buf bytes.Buffer
		for i := 2; i+1 < len(v); i += 2 {
			buf.WriteRune(rune(v[i])<<8 | rune(v[i+1]))
		}
		return buf.String()
	}
	return string(v)
}

// Array represents a PDF array.
type Array []Object

// WriteTo implements Object.
func (a Array) WriteTo(w io.Writer) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	for i, item := range a {
		if i > 0 {
			if _, err := io.WriteString(w, " "); err != nil {
				return err
			}
		}
		if err := item.WriteTo(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "]")
	return err
}

// Dict represents a PDF dictionary. Insertion order is preserved so output
// is deterministic.
type Dict struct {
	entries map[string]Object
	order   []string
}

// NewDict creates an empty dictionary.
func NewDict() *Dict {
	return &Dict{entries: make(map[string]Object)}
}

// WriteTo implements Object.
func (d *Dict) WriteTo(w io.Writer) error {
	if _, err := io.WriteString(w, "<<"); err != nil {
		return err
	}
	for _, key := range d.order {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		if err := Name(key).WriteTo(w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, " "); err != nil {
			return err
		}
		if err := d.entries[key].WriteTo(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n>>")
	return err
}

// Set stores a key-value pair.
func (d *Dict) Set(key string, value Object) {
	if _, ok := d.entries[key]; !ok {
		d.order = append(d.order, key)
	}
	d.entries[key] = value
}

// Get returns the value for key, or nil.
func (d *Dict) Get(key string) Object {
	return d.entries[key]
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.entries[key]
	return ok
}

// Delete removes key if present.
func (d *Dict) Delete(key string) {
	if _, ok := d.entries[key]; !ok {
		return
	}
	delete(d.entries, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	return d.order
}

// GetName returns the name value for key, or "".
func (d *Dict) GetName(key string) string {
	if n, ok := d.Get(key).(Name); ok {
		return string(n)
	}
	return ""
}

// GetInt returns the integer value for key.
func (d *Dict) GetInt(key string) (int64, bool) {
	if i, ok := d.Get(key).(Integer); ok {
		return int64(i), true
	}
	return 0, false
}

// GetString returns the string object for key, or nil.
func (d *Dict) GetString(key string) *String {
	if s, ok := d.Get(key).(*String); ok {
		return s
	}
	return nil
}

// GetArray returns the array value for key, or nil.
func (d *Dict) GetArray(key string) Array {
	if a, ok := d.Get(key).(Array); ok {
		return a
	}
	return nil
}

// GetDict returns the dictionary value for key, or nil.
func (d *Dict) GetDict(key string) *Dict {
	if sub, ok := d.Get(key).(*Dict); ok {
		return sub
	}
	return nil
}

// GetRef returns the reference value for key.
func (d *Dict) GetRef(key string) (Ref, bool) {
	if r, ok := d.Get(key).(Ref); ok {
		return r, true
	}
	return Ref{}, false
}

// Stream represents a PDF stream: a dictionary plus raw data.
type Stream struct {
	Dict *Dict
	Data []byte
}

// NewStream creates a stream object.
func NewStream(dict *Dict, data []byte) *Stream {
	if dict == nil {
		dict = NewDict()
	}
	return &Stream{Dict: dict, Data: data}
}

// WriteTo implements Object.
func (s *Stream) WriteTo(w io.Writer) error {
	s.Dict.Set("Length", Integer(len(s.Data)))
	if err := s.Dict.WriteTo(w); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\nstream\n"); err != nil {
		return err
	}
	if _, err := w.Write(s.Data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\nendstream")
	return err
}

// Ref is an indirect reference to a numbered object.
type Ref struct {
	Number     int
	Generation int
}

// WriteTo implements Object.
func (r Ref) WriteTo(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d %d R", r.Number, r.Generation)
	return err
}

// String returns the reference in PDF syntax.
func (r Ref) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// Indirect pairs an object with its number and generation for output as a
// top-level "N G obj ... endobj" definition.
type Indirect struct {
	Ref    Ref
	Object Object
}

// WriteTo implements Object.
func (i *Indirect) WriteTo(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%d %d obj\n", i.Ref.Number, i.Ref.Generation); err != nil {
		return err
	}
	if i.Object != nil {
		if err := i.Object.WriteTo(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\nendobj\n")
	return err
}

// Clone deep-copies a PDF object. Value types are returned as-is.
func Clone(obj Object) Object {
	switch o := obj.(type) {
	case *Dict:
		out := NewDict()
		for _, k := range o.order {
			out.Set(k, Clone(o.entries[k]))
		}
		return out
	case Array:
		out := make(Array, len(o))
		for i, item := range o {
			out[i] = Clone(item)
		}
		return out
	case *String:
		v := make([]byte, len(o.Value))
		copy(v, o.Value)
		return &String{Value: v, Hex: o.Hex}
	case *Stream:
		data := make([]byte, len(o.Data))
		copy(data, o.Data)
		return &Stream{Dict: Clone(o.Dict).(*Dict), Data: data}
	case *Indirect:
		return &Indirect{Ref: o.Ref, Object: Clone(o.Object)}
	default:
		return obj
	}
}
