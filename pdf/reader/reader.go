// Package reader parses the structural skeleton of a PDF file: header,
// cross-reference chain, trailers and indirect objects. It reads enough of
// the format to locate pages and trailer entries; content interpretation is
// left to the callers.
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pdfseal/pdfseal/pdf/filters"
	"github.com/pdfseal/pdfseal/pdf/generic"
)

// Common errors
var (
	ErrInvalidPDF     = errors.New("invalid PDF file")
	ErrNoXRef         = errors.New("no cross-reference section found")
	ErrInvalidXRef    = errors.New("invalid cross-reference section")
	ErrObjectNotFound = errors.New("object not found")
	ErrNoPages        = errors.New("document has no pages")
)

var headerRegex = regexp.MustCompile(`%PDF-(\d+\.\d+)`)

// XRefEntry locates one indirect object.
type XRefEntry struct {
	// Offset is the byte offset for in-file objects, or the object number
	// of the containing object stream for compressed objects.
	Offset     int64
	Generation int
	InUse      bool
	// InObjStream marks entries stored inside an object stream; Offset is
	// then the stream's object number and StreamIndex the position inside it.
	InObjStream bool
	StreamIndex int
}

// Document is a parsed PDF file. The underlying byte slice is never
// modified.
type Document struct {
	data []byte

	// Version is the header version, e.g. "1.7".
	Version string

	// Trailer is the most recent trailer dictionary.
	Trailer *generic.Dict

	// Trailers holds every trailer in the chain, newest first.
	Trailers []*generic.Dict

	// XRef maps object numbers to their newest entry.
	XRef map[int]*XRefEntry

	// XRefOffsets holds the startxref chain offsets, newest first.
	XRefOffsets []int64

	cache map[int]generic.Object
}

// Load parses a PDF from bytes. The slice is retained; callers must not
// mutate it afterwards.
func Load(data []byte) (*Document, error) {
	doc := &Document{
		data:  data,
		XRef:  make(map[int]*XRefEntry),
		cache: make(map[int]generic.Object),
	}
	if err := doc.parseHeader(); err != nil {
		return nil, err
	}
	if err := doc.parseXRefChain(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Data returns the raw bytes backing the document.
func (d *Document) Data() []byte {
	return d.data
}

// Len returns the document length in bytes.
func (d *Document) Len() int64 {
	return int64(len(d.data))
}

func (d *Document) parseHeader() error {
	if len(d.data) < 8 {
		return ErrInvalidPDF
	}
	limit := len(d.data)
	if limit > 1024 {
		limit = 1024
	}
	match := headerRegex.FindSubmatch(d.data[:limit])
	if match == nil {
		return fmt.Errorf("%w: missing %%PDF header", ErrInvalidPDF)
	}
	d.Version = string(match[1])
	return nil
}

// LastStartXRef returns the byte offset announced by the final startxref
// keyword.
func (d *Document) LastStartXRef() (int64, error) {
	pos := bytes.LastIndex(d.data, []byte("startxref"))
	if pos == -1 {
		return 0, ErrNoXRef
	}
	rest := d.data[pos+len("startxref"):]
	i := 0
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\r' || rest[i] == '\n' || rest[i] == '\t') {
		i++
	}
	start := i
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if start == i {
		return 0, fmt.Errorf("%w: missing startxref offset", ErrInvalidXRef)
	}
	offset, err := strconv.ParseInt(string(rest[start:i]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad startxref offset: %v", ErrInvalidXRef, err)
	}
	return offset, nil
}

func (d *Document) parseXRefChain() error {
	offset, err := d.LastStartXRef()
	if err != nil {
		return err
	}

	visited := make(map[int64]bool)
	for offset > 0 {
		if visited[offset] {
			break
		}
		visited[offset] = true

		if offset >= int64(len(d.data)) {
			return fmt.Errorf("%w: offset %d beyond end of file", ErrInvalidXRef, offset)
		}
		d.XRefOffsets = append(d.XRefOffsets, offset)

		pos := int(offset)
		for pos < len(d.data) && isSpace(d.data[pos]) {
			pos++
		}

		var trailer *generic.Dict
		if bytes.HasPrefix(d.data[pos:], []byte("xref")) {
			trailer, err = d.parseXRefTable(pos)
		} else {
			trailer, err = d.parseXRefStreamSection(pos)
		}
		if err != nil {
			return err
		}

		d.Trailers = append(d.Trailers, trailer)
		if d.Trailer == nil {
			d.Trailer = trailer
		}

		prev, ok := trailer.GetInt("Prev")
		if !ok {
			break
		}
		offset = prev
	}

	if d.Trailer == nil {
		return ErrNoXRef
	}
	return nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// parseXRefTable parses a classic "xref" table followed by its trailer.
func (d *Document) parseXRefTable(pos int) (*generic.Dict, error) {
	pos += len("xref")

	for {
		for pos < len(d.data) && isSpace(d.data[pos]) {
			pos++
		}
		if bytes.HasPrefix(d.data[pos:], []byte("trailer")) {
			pos += len("trailer")
			break
		}

		start, count, next, err := d.parseSubsectionHeader(pos)
		if err != nil {
			return nil, err
		}
		pos = next

		for i := 0; i < count; i++ {
			end := pos + 20
			if end > len(d.data) {
				end = len(d.data)
			}
			if end-pos < 18 {
				return nil, fmt.Errorf("%w: truncated entry", ErrInvalidXRef)
			}
			fields := bytes.Fields(d.data[pos:end])
			if len(fields) < 3 {
				return nil, fmt.Errorf("%w: malformed entry", ErrInvalidXRef)
			}
			off, _ := strconv.ParseInt(string(fields[0]), 10, 64)
			gen, _ := strconv.Atoi(string(fields[1]))
			inUse := string(fields[2]) == "n"

			objNum := start + i
			if _, exists := d.XRef[objNum]; !exists {
				d.XRef[objNum] = &XRefEntry{Offset: off, Generation: gen, InUse: inUse}
			}
			pos += 20
			if pos > len(d.data) {
				pos = len(d.data)
			}
		}
	}

	for pos < len(d.data) && isSpace(d.data[pos]) {
		pos++
	}
	parser := generic.NewParser(d.data)
	parser.Seek(pos)
	obj, err := parser.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("%w: bad trailer: %v", ErrInvalidXRef, err)
	}
	trailer, ok := obj.(*generic.Dict)
	if !ok {
		return nil, fmt.Errorf("%w: trailer is not a dictionary", ErrInvalidXRef)
	}
	return trailer, nil
}

func (d *Document) parseSubsectionHeader(pos int) (start, count, next int, err error) {
	readInt := func() (int, error) {
		for pos < len(d.data) && isSpace(d.data[pos]) {
			pos++
		}
		s := pos
		for pos < len(d.data) && d.data[pos] >= '0' && d.data[pos] <= '9' {
			pos++
		}
		if s == pos {
			return 0, fmt.Errorf("%w: bad subsection header", ErrInvalidXRef)
		}
		v, _ := strconv.Atoi(string(d.data[s:pos]))
		return v, nil
	}

	if start, err = readInt(); err != nil {
		return 0, 0, pos, err
	}
	if count, err = readInt(); err != nil {
		return 0, 0, pos, err
	}
	// Entries begin on the next line.
	for pos < len(d.data) && d.data[pos] != '\n' && d.data[pos] != '\r' {
		pos++
	}
	for pos < len(d.data) && (d.data[pos] == '\n' || d.data[pos] == '\r') {
		pos++
	}
	return start, count, pos, nil
}

// parseXRefStreamSection parses a cross-reference stream (PDF 1.5+).
func (d *Document) parseXRefStreamSection(pos int) (*generic.Dict, error) {
	parser := generic.NewParser(d.data)
	parser.Seek(pos)
	ind, err := parser.ParseIndirect()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidXRef, err)
	}
	stream, ok := ind.Object.(*generic.Stream)
	if !ok {
		return nil, fmt.Errorf("%w: expected cross-reference stream", ErrInvalidXRef)
	}
	if stream.Dict.GetName("Type") != "XRef" {
		return nil, fmt.Errorf("%w: stream is not /Type /XRef", ErrInvalidXRef)
	}

	decoded, err := filters.Decode(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidXRef, err)
	}

	wArr := stream.Dict.GetArray("W")
	if len(wArr) != 3 {
		return nil, fmt.Errorf("%w: bad /W array", ErrInvalidXRef)
	}
	var w [3]int
	for i, item := range wArr {
		n, ok := item.(generic.Integer)
		if !ok {
			return nil, fmt.Errorf("%w: bad /W array", ErrInvalidXRef)
		}
		w[i] = int(n)
	}

	var subsections [][2]int
	if idx := stream.Dict.GetArray("Index"); idx != nil {
		for i := 0; i+1 < len(idx); i += 2 {
			s, _ := idx[i].(generic.Integer)
			c, _ := idx[i+1].(generic.Integer)
			subsections = append(subsections, [2]int{int(s), int(c)})
		}
	} else {
		size, _ := stream.Dict.GetInt("Size")
		subsections = [][2]int{{0, int(size)}}
	}

	entrySize := w[0] + w[1] + w[2]
	if entrySize <= 0 {
		return nil, fmt.Errorf("%w: zero-width entries", ErrInvalidXRef)
	}

	pos = 0
	for _, sub := range subsections {
		for i := 0; i < sub[1]; i++ {
			if pos+entrySize > len(decoded) {
				break
			}
			f1 := readField(decoded[pos:], 0, w[0])
			f2 := readField(decoded[pos:], w[0], w[1])
			f3 := readField(decoded[pos:], w[0]+w[1], w[2])
			pos += entrySize

			if w[0] == 0 {
				f1 = 1
			}
			objNum := sub[0] + i
			if _, exists := d.XRef[objNum]; exists {
				continue
			}
			switch f1 {
			case 0:
				d.XRef[objNum] = &XRefEntry{Offset: f2, Generation: int(f3)}
			case 1:
				d.XRef[objNum] = &XRefEntry{Offset: f2, Generation: int(f3), InUse: true}
			case 2:
				d.XRef[objNum] = &XRefEntry{
					Offset:      f2,
					InUse:       true,
					InObjStream: true,
					StreamIndex: int(f3),
				}
			}
		}
	}

	return stream.Dict, nil
}

func readField(data []byte, offset, width int) int64 {
	var v int64
	for i := 0; i < width; i++ {
		v = v<<8 | int64(data[offset+i])
	}
	return v
}

// GetObject resolves an object by number, following object streams.
func (d *Document) GetObject(num int) (generic.Object, error) {
	if obj, ok := d.cache[num]; ok {
		return obj, nil
	}

	entry := d.XRef[num]
	if entry == nil || !entry.InUse {
		return nil, fmt.Errorf("%w: object %d", ErrObjectNotFound, num)
	}

	var obj generic.Object
	if entry.InObjStream {
		var err error
		obj, err = d.objectFromStream(int(entry.Offset), entry.StreamIndex)
		if err != nil {
			return nil, err
		}
	} else {
		if entry.Offset < 0 || entry.Offset >= int64(len(d.data)) {
			return nil, fmt.Errorf("%w: object %d offset out of bounds", ErrInvalidXRef, num)
		}
		parser := generic.NewParser(d.data)
		parser.Seek(int(entry.Offset))
		ind, err := parser.ParseIndirect()
		if err != nil {
			return nil, fmt.Errorf("failed to parse object %d: %w", num, err)
		}
		if ind.Ref.Number != num {
			return nil, fmt.Errorf("%w: object %d found at offset for %d", ErrInvalidXRef, ind.Ref.Number, num)
		}
		obj = ind.Object
	}

	d.cache[num] = obj
	return obj, nil
}

// objectFromStream extracts the object at index from an object stream.
func (d *Document) objectFromStream(streamNum, index int) (generic.Object, error) {
	container, err := d.GetObject(streamNum)
	if err != nil {
		return nil, err
	}
	stream, ok := container.(*generic.Stream)
	if !ok {
		return nil, fmt.Errorf("%w: object stream %d is not a stream", ErrInvalidXRef, streamNum)
	}

	decoded, err := filters.Decode(stream)
	if err != nil {
		return nil, err
	}
	n, _ := stream.Dict.GetInt("N")
	first, _ := stream.Dict.GetInt("First")
	if index < 0 || int64(index) >= n {
		return nil, fmt.Errorf("%w: index %d out of range in object stream %d", ErrObjectNotFound, index, streamNum)
	}

	// The stream header is N pairs of "objnum offset".
	header := decoded
	if int64(len(header)) > first {
		header = decoded[:first]
	}
	pairs := bytes.Fields(header)
	if len(pairs) < 2*(index+1) {
		return nil, fmt.Errorf("%w: truncated object stream header", ErrInvalidXRef)
	}
	offset, err := strconv.ParseInt(string(pairs[2*index+1]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad object stream offset", ErrInvalidXRef)
	}

	parser := generic.NewParser(decoded)
	parser.Seek(int(first + offset))
	return parser.ParseObject()
}

// Resolve follows references until a direct object is reached.
func (d *Document) Resolve(obj generic.Object) (generic.Object, error) {
	for i := 0; i < 32; i++ {
		ref, ok := obj.(generic.Ref)
		if !ok {
			return obj, nil
		}
		var err error
		obj, err = d.GetObject(ref.Number)
		if err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: reference chain too deep", ErrInvalidXRef)
}

// ResolveDict resolves obj and asserts it is a dictionary.
func (d *Document) ResolveDict(obj generic.Object) (*generic.Dict, error) {
	resolved, err := d.Resolve(obj)
	if err != nil {
		return nil, err
	}
	dict, ok := resolved.(*generic.Dict)
	if !ok {
		return nil, fmt.Errorf("%w: expected dictionary", ErrInvalidPDF)
	}
	return dict, nil
}

// Root returns the document catalog.
func (d *Document) Root() (*generic.Dict, error) {
	root := d.Trailer.Get("Root")
	if root == nil {
		return nil, fmt.Errorf("%w: trailer has no /Root", ErrInvalidPDF)
	}
	return d.ResolveDict(root)
}

// MaxObjectNumber returns the highest known object number.
func (d *Document) MaxObjectNumber() int {
	max := 0
	for num := range d.XRef {
		if num > max {
			max = num
		}
	}
	return max
}

// FirstPage returns the first page dictionary and its reference, walking
// the page tree depth-first.
func (d *Document) FirstPage() (generic.Ref, *generic.Dict, error) {
	root, err := d.Root()
	if err != nil {
		return generic.Ref{}, nil, err
	}
	pagesObj := root.Get("Pages")
	if pagesObj == nil {
		return generic.Ref{}, nil, ErrNoPages
	}

	node := pagesObj
	for depth := 0; depth < 64; depth++ {
		ref, isRef := node.(generic.Ref)
		dict, err := d.ResolveDict(node)
		if err != nil {
			return generic.Ref{}, nil, err
		}
		if dict.GetName("Type") == "Page" {
			if !isRef {
				return generic.Ref{}, nil, fmt.Errorf("%w: page is not an indirect object", ErrInvalidPDF)
			}
			return ref, dict, nil
		}
		kids := dict.GetArray("Kids")
		if len(kids) == 0 {
			return generic.Ref{}, nil, ErrNoPages
		}
		node = kids[0]
	}
	return generic.Ref{}, nil, fmt.Errorf("%w: page tree too deep", ErrInvalidPDF)
}
