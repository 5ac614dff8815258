package generic

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Common errors
var (
	ErrInvalidObject = errors.New("invalid PDF object")
	ErrInvalidString = errors.New("invalid PDF string")
	ErrInvalidName   = errors.New("invalid PDF name")
	ErrInvalidNumber = errors.New("invalid PDF number")
	ErrInvalidDict   = errors.New("invalid PDF dictionary")
	ErrInvalidArray  = errors.New("invalid PDF array")
)

// Parser tokenizes PDF object syntax from an in-memory byte slice.
type Parser struct {
	data []byte
	pos  int
}

// NewParser creates a parser over data.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Pos returns the current byte position.
func (p *Parser) Pos() int {
	return p.pos
}

// Seek moves the parser to an absolute position.
func (p *Parser) Seek(pos int) {
	p.pos = pos
}

func (p *Parser) readByte() (byte, error) {
	if p.pos >= len(p.data) {
		return 0, io.EOF
	}
	b := p.data[p.pos]
	p.pos++
	return b, nil
}

func (p *Parser) unread() {
	if p.pos > 0 {
		p.pos--
	}
}

func (p *Parser) peek() (byte, error) {
	if p.pos >= len(p.data) {
		return 0, io.EOF
	}
	return p.data[p.pos], nil
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == 0 || b == '\x0c'
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// skipWhitespace advances past whitespace and % comments.
func (p *Parser) skipWhitespace() {
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		if isWhitespace(b) {
			p.pos++
			continue
		}
		if b == '%' {
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
			continue
		}
		return
	}
}

// readToken reads a run of regular characters.
func (p *Parser) readToken() string {
	p.skipWhitespace()
	start := p.pos
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// ParseObject parses the next PDF object, resolving "N G R" sequences into
// Ref values.
func (p *Parser) ParseObject() (Object, error) {
	p.skipWhitespace()
	b, err := p.peek()
	if err != nil {
		return nil, fmt.Errorf("%w: unexpected end of data", ErrInvalidObject)
	}

	switch {
	case b == '(':
		return p.parseLiteralString()
	case b == '<':
		return p.parseHexOrDict()
	case b == '[':
		return p.parseArray()
	case b == '/':
		return p.parseName()
	case b == 't' || b == 'f':
		return p.parseKeyword()
	case b == 'n':
		return p.parseKeyword()
	case b == '+' || b == '-' || b == '.' || (b >= '0' && b <= '9'):
		return p.parseNumberOrRef()
	default:
		return nil, fmt.Errorf("%w: unexpected character %q", ErrInvalidObject, b)
	}
}

func (p *Parser) parseKeyword() (Object, error) {
	switch tok := p.readToken(); tok {
	case "true":
		return Boolean(true), nil
	case "false":
		return Boolean(false), nil
	case "null":
		return Null{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown keyword %q", ErrInvalidObject, tok)
	}
}

func (p *Parser) parseLiteralString() (*String, error) {
	if b, _ := p.readByte(); b != '(' {
		return nil, ErrInvalidString
	}
	var out []byte
	depth := 1
	for depth > 0 {
		b, err := p.readByte()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated string", ErrInvalidString)
		}
		switch b {
		case '(':
			depth++
			out = append(out, b)
		case ')':
			depth--
			if depth > 0 {
				out = append(out, b)
			}
		case '\\':
			esc, err := p.readByte()
			if err != nil {
				return nil, fmt.Errorf("%w: unterminated escape", ErrInvalidString)
			}
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, esc)
			case '\r':
				if next, err := p.peek(); err == nil && next == '\n' {
					p.readByte()
				}
			case '\n':
				// line continuation
			default:
				if esc >= '0' && esc <= '7' {
					oct := []byte{esc}
					for len(oct) < 3 {
						next, err := p.peek()
						if err != nil || next < '0' || next > '7' {
							break
						}
						p.readByte()
						oct = append(oct, next)
					}
					v, _ := strconv.ParseUint(string(oct), 8, 16)
					out = append(out, byte(v))
				} else {
					out = append(out, esc)
				}
			}
		default:
			out = append(out, b)
		}
	}
	return &String{Value: out}, nil
}

func (p *Parser) parseHexOrDict() (Object, error) {
	if b, _ := p.readByte(); b != '<' {
		return nil, ErrInvalidObject
	}
	b, err := p.peek()
	if err != nil {
		return nil, fmt.Errorf("%w: unterminated angle bracket", ErrInvalidObject)
	}
	if b == '<' {
		p.readByte()
		return p.parseDict()
	}
	return p.parseHexString()
}

func (p *Parser) parseHexString() (*String, error) {
	var digits []byte
	for {
		b, err := p.readByte()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated hex string", ErrInvalidString)
		}
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		digits = append(digits, b)
	}
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	value, err := hex.DecodeString(string(digits))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidString, err)
	}
	return &String{Value: value, Hex: true}, nil
}

// parseDict parses a dictionary body after << has been consumed.
func (p *Parser) parseDict() (*Dict, error) {
	dict := NewDict()
	for {
		p.skipWhitespace()
		b, err := p.peek()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated dictionary", ErrInvalidDict)
		}
		if b == '>' {
			p.readByte()
			if next, _ := p.readByte(); next != '>' {
				return nil, fmt.Errorf("%w: expected '>>'", ErrInvalidDict)
			}
			return dict, nil
		}
		key, err := p.parseName()
		if err != nil {
			return nil, fmt.Errorf("%w: bad key: %v", ErrInvalidDict, err)
		}
		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("%w: bad value for /%s: %v", ErrInvalidDict, key, err)
		}
		dict.Set(string(key), value)
	}
}

func (p *Parser) parseArray() (Array, error) {
	if b, _ := p.readByte(); b != '[' {
		return nil, ErrInvalidArray
	}
	var arr Array
	for {
		p.skipWhitespace()
		b, err := p.peek()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated array", ErrInvalidArray)
		}
		if b == ']' {
			p.readByte()
			return arr, nil
		}
		item, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArray, err)
		}
		arr = append(arr, item)
	}
}

func (p *Parser) parseName() (Name, error) {
	if b, _ := p.readByte(); b != '/' {
		return "", ErrInvalidName
	}
	var out []byte
	for {
		b, err := p.readByte()
		if err != nil {
			break
		}
		if isWhitespace(b) || isDelimiter(b) {
			p.unread()
			break
		}
		if b == '#' {
			h1, err1 := p.readByte()
			h2, err2 := p.readByte()
			if err1 != nil || err2 != nil {
				return "", fmt.Errorf("%w: truncated hex escape", ErrInvalidName)
			}
			v, err := strconv.ParseUint(string([]byte{h1, h2}), 16, 8)
			if err != nil {
				return "", fmt.Errorf("%w: bad hex escape", ErrInvalidName)
			}
			out = append(out, byte(v))
			continue
		}
		out = append(out, b)
	}
	return Name(out), nil
}

// parseNumber parses an integer or real.
func (p *Parser) parseNumber() (Object, error) {
	start := p.pos
	decimal := false
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		if b == '.' {
			if decimal {
				break
			}
			decimal = true
		} else if b == '+' || b == '-' {
			if p.pos != start {
				break
			}
		} else if b < '0' || b > '9' {
			break
		}
		p.pos++
	}
	tok := string(p.data[start:p.pos])
	if tok == "" || tok == "+" || tok == "-" || tok == "." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, tok)
	}
	if decimal {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, err)
		}
		return Real(v), nil
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, err)
	}
	return Integer(v), nil
}

// parseNumberOrRef parses a number, upgrading "N G R" to a Ref.
func (p *Parser) parseNumberOrRef() (Object, error) {
	start := p.pos
	first, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	num, ok := first.(Integer)
	if !ok || num < 0 {
		return first, nil
	}

	save := p.pos
	p.skipWhitespace()
	b, err := p.peek()
	if err != nil || b < '0' || b > '9' {
		p.pos = save
		return first, nil
	}
	second, err := p.parseNumber()
	if err != nil {
		p.pos = save
		return first, nil
	}
	gen, ok := second.(Integer)
	if !ok {
		p.pos = save
		return first, nil
	}
	p.skipWhitespace()
	if b, err := p.peek(); err == nil && b == 'R' {
		// Make sure 'R' stands alone.
		p.readByte()
		if next, err := p.peek(); err != nil || isWhitespace(next) || isDelimiter(next) {
			return Ref{Number: int(num), Generation: int(gen)}, nil
		}
	}
	p.pos = start
	return p.parseNumber()
}

// ParseIndirect parses an "N G obj ... endobj" definition, including stream
// bodies when the object dictionary is followed by the stream keyword.
func (p *Parser) ParseIndirect() (*Indirect, error) {
	p.skipWhitespace()
	numObj, err := p.parseNumber()
	if err != nil {
		return nil, fmt.Errorf("%w: bad object number: %v", ErrInvalidObject, err)
	}
	num, ok := numObj.(Integer)
	if !ok {
		return nil, fmt.Errorf("%w: object number must be an integer", ErrInvalidObject)
	}
	genObj, err := func() (Object, error) { p.skipWhitespace(); return p.parseNumber() }()
	if err != nil {
		return nil, fmt.Errorf("%w: bad generation number: %v", ErrInvalidObject, err)
	}
	gen, ok := genObj.(Integer)
	if !ok {
		return nil, fmt.Errorf("%w: generation number must be an integer", ErrInvalidObject)
	}
	if tok := p.readToken(); tok != "obj" {
		return nil, fmt.Errorf("%w: expected 'obj', got %q", ErrInvalidObject, tok)
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, err
	}

	p.skipWhitespace()
	if dict, ok := obj.(*Dict); ok {
		if b, err := p.peek(); err == nil && b == 's' {
			save := p.pos
			if tok := p.readToken(); tok == "stream" {
				if b, _ := p.readByte(); b == '\r' {
					if next, err := p.peek(); err == nil && next == '\n' {
						p.readByte()
					}
				}
				length, _ := dict.GetInt("Length")
				if length < 0 || p.pos+int(length) > len(p.data) {
					return nil, fmt.Errorf("%w: stream length out of bounds", ErrInvalidObject)
				}
				data := make([]byte, length)
				copy(data, p.data[p.pos:p.pos+int(length)])
				p.pos += int(length)
				p.skipWhitespace()
				p.readToken() // endstream
				obj = &Stream{Dict: dict, Data: data}
			} else {
				p.pos = save
			}
		}
	}

	p.skipWhitespace()
	p.readToken() // endobj; tolerated when absent

	return &Indirect{
		Ref:    Ref{Number: int(num), Generation: int(gen)},
		Object: obj,
	}, nil
}
