// Package filters implements the stream filters needed to read document
// structure: FlateDecode (with PNG predictors) and ASCIIHexDecode.
package filters

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/pdfseal/pdfseal/pdf/generic"
)

// Common errors
var (
	ErrUnsupportedFilter    = errors.New("unsupported stream filter")
	ErrUnsupportedPredictor = errors.New("unsupported predictor")
)

// Decode returns the decoded data of a stream, applying its /Filter chain.
func Decode(s *generic.Stream) ([]byte, error) {
	data := s.Data

	var names []string
	switch f := s.Dict.Get("Filter").(type) {
	case nil:
		return data, nil
	case generic.Name:
		names = []string{string(f)}
	case generic.Array:
		for _, item := range f {
			if n, ok := item.(generic.Name); ok {
				names = append(names, string(n))
			}
		}
	}

	var parms []*generic.Dict
	switch p := s.Dict.Get("DecodeParms").(type) {
	case *generic.Dict:
		parms = []*generic.Dict{p}
	case generic.Array:
		for _, item := range p {
			d, _ := item.(*generic.Dict)
			parms = append(parms, d)
		}
	}

	var err error
	for i, name := range names {
		var parm *generic.Dict
		if i < len(parms) {
			parm = parms[i]
		}
		data, err = decodeOne(name, data, parm)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

func decodeOne(name string, data []byte, parm *generic.Dict) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return flateDecode(data, parm)
	case "ASCIIHexDecode", "AHx":
		return asciiHexDecode(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, name)
	}
}

func flateDecode(data []byte, parm *generic.Dict) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("flate decode failed: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("flate decode failed: %w", err)
	}

	if parm == nil {
		return out, nil
	}
	predictor, _ := parm.GetInt("Predictor")
	if predictor <= 1 {
		return out, nil
	}
	columns := int64(1)
	if c, ok := parm.GetInt("Columns"); ok {
		columns = c
	}
	colors := int64(1)
	if c, ok := parm.GetInt("Colors"); ok {
		colors = c
	}
	bpc := int64(8)
	if b, ok := parm.GetInt("BitsPerComponent"); ok {
		bpc = b
	}
	return undoPredictor(out, int(predictor), int(columns), int(colors*bpc/8))
}

// undoPredictor reverses PNG row predictors (predictor >= 10). TIFF
// predictor 2 is not used by the writers this package reads.
func undoPredictor(data []byte, predictor, columns, bytesPerPixel int) ([]byte, error) {
	if predictor < 10 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedPredictor, predictor)
	}
	if bytesPerPixel < 1 {
		bytesPerPixel = 1
	}
	rowLen := columns * bytesPerPixel
	if rowLen <= 0 {
		return nil, fmt.Errorf("%w: bad columns", ErrUnsupportedPredictor)
	}

	var out bytes.Buffer
	prev := make([]byte, rowLen)
	for pos := 0; pos < len(data); pos += 1 + rowLen {
		tag := data[pos]
		end := pos + 1 + rowLen
		if end > len(data) {
			end = len(data)
		}
		row := make([]byte, end-pos-1)
		copy(row, data[pos+1:end])

		for i := range row {
			var left, up, upLeft byte
			if i >= bytesPerPixel {
				left = row[i-bytesPerPixel]
				upLeft = prev[i-bytesPerPixel]
			}
			up = prev[i]
			switch tag {
			case 0:
			case 1:
				row[i] += left
			case 2:
				row[i] += up
			case 3:
				row[i] += byte((int(left) + int(up)) / 2)
			case 4:
				row[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("%w: row tag %d", ErrUnsupportedPredictor, tag)
			}
		}
		out.Write(row)
		copy(prev, row)
	}
	return out.Bytes(), nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func asciiHexDecode(data []byte) ([]byte, error) {
	var digits []byte
	for _, b := range data {
		if b == '>' {
			break
		}
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == 0 || b == '\x0c' {
			continue
		}
		digits = append(digits, b)
	}
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	out, err := hex.DecodeString(string(digits))
	if err != nil {
		return nil, fmt.Errorf("ascii hex decode failed: %w", err)
	}
	return out, nil
}

// FlateEncode compresses data with zlib for stream output.
func FlateEncode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("flate encode failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flate encode failed: %w", err)
	}
	return buf.Bytes(), nil
}
