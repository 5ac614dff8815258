// Package stamp renders visible watermarks onto PDF pages.
package stamp

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/pdfseal/pdfseal/pdf/generic"
)

// Style configures the appearance of a watermark.
type Style struct {
	// Text color
	TextColor color.RGBA
	// Font size in points
	FontSize float64
	// Font name (standard 14 PDF fonts)
	FontName string
	// Padding inside the watermark box
	Padding float64
	// Margin from the top-left page corner
	Margin float64
}

// DefaultStyle returns the default watermark style.
func DefaultStyle() *Style {
	return &Style{
		TextColor: color.RGBA{64, 64, 64, 255},
		FontSize:  9.0,
		FontName:  "Helvetica",
		Padding:   4.0,
		Margin:    18.0,
	}
}

// Watermark is a block of text lines painted near the top-left corner
// of a page.
type Watermark struct {
	Style *Style
	Lines []string

	width  float64
	height float64
}

// NewWatermark creates a watermark from the given text lines.
func NewWatermark(lines []string, style *Style) *Watermark {
	if style == nil {
		style = DefaultStyle()
	}

	maxWidth := 0.0
	for _, line := range lines {
		lineWidth := float64(len(line)) * style.FontSize * 0.5
		if lineWidth > maxWidth {
			maxWidth = lineWidth
		}
	}

	return &Watermark{
		Style:  style,
		Lines:  lines,
		width:  maxWidth + style.Padding*2,
		height: float64(len(lines))*style.FontSize*1.2 + style.Padding*2,
	}
}

// Dimensions returns the width and height of the watermark box.
func (wm *Watermark) Dimensions() (width, height float64) {
	return wm.width, wm.height
}

// Render renders the watermark to a PDF content stream. Coordinates are
// relative to the bottom-left corner of the watermark box.
func (wm *Watermark) Render() []byte {
	var buf bytes.Buffer

	buf.WriteString("q\n")

	r := float64(wm.Style.TextColor.R) / 255.0
	g := float64(wm.Style.TextColor.G) / 255.0
	b := float64(wm.Style.TextColor.B) / 255.0
	fmt.Fprintf(&buf, "%f %f %f rg\n", r, g, b)
	buf.WriteString("BT\n")
	fmt.Fprintf(&buf, "/F1 %f Tf\n", wm.Style.FontSize)
	fmt.Fprintf(&buf, "%f TL\n", wm.Style.FontSize*1.2)

	y := wm.height - wm.Style.Padding - wm.Style.FontSize
	fmt.Fprintf(&buf, "%f %f Td\n", wm.Style.Padding, y)
	for i, line := range wm.Lines {
		if i > 0 {
			buf.WriteString("T*\n")
		}
		fmt.Fprintf(&buf, "(%s) Tj\n", escapeString(line))
	}

	buf.WriteString("ET\n")
	buf.WriteString("Q\n")

	return buf.Bytes()
}

// AppearanceStream creates a self-contained Form XObject for the watermark.
func (wm *Watermark) AppearanceStream() *generic.Stream {
	dict := generic.NewDict()
	dict.Set("Type", generic.Name("XObject"))
	dict.Set("Subtype", generic.Name("Form"))
	dict.Set("BBox", generic.Array{
		generic.Real(0),
		generic.Real(0),
		generic.Real(wm.width),
		generic.Real(wm.height),
	})

	font := generic.NewDict()
	font.Set("Type", generic.Name("Font"))
	font.Set("Subtype", generic.Name("Type1"))
	font.Set("BaseFont", generic.Name(wm.Style.FontName))
	font.Set("Encoding", generic.Name("WinAnsiEncoding"))

	fonts := generic.NewDict()
	fonts.Set("F1", font)
	resources := generic.NewDict()
	resources.Set("Font", fonts)
	dict.Set("Resources", resources)

	return generic.NewStream(dict, wm.Render())
}

// escapeString escapes characters that are special inside a PDF literal
// string. Characters outside the printable ASCII range are written as
// octal escapes.
func escapeString(s string) string {
	var buf bytes.Buffer
	for _, c := range []byte(s) {
		switch c {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < 32 || c > 126 {
				fmt.Fprintf(&buf, `\%03o`, c)
			} else {
				buf.WriteByte(c)
			}
		}
	}
	return buf.String()
}
