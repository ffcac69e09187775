package printer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	esc = 0x1B
	gs  = 0x1D
	lf  = 0x0A
)

// Paper widths in characters for the standard font.
const (
	Width58mm = 32
	Width80mm = 48
)

type Align byte

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

type Size byte

const (
	SizeNormal Size = 0x00
	SizeTall   Size = 0x01
	SizeWide   Size = 0x10
	SizeDouble Size = 0x11
)

// Document accumulates an ESC/POS job. Widths are counted in runes so item
// names with non-ASCII characters still line up.
type Document struct {
	buf   bytes.Buffer
	width int
}

// NewDocument starts a job for a paper width in characters.
func NewDocument(width int) *Document {
	if width <= 0 {
		width = Width58mm
	}
	d := &Document{width: width}
	d.buf.Write([]byte{esc, '@'})
	return d
}

func (d *Document) Width() int {
	return d.width
}

func (d *Document) Feed(n int) *Document {
	d.buf.Write(bytes.Repeat([]byte{lf}, max(n, 1)))
	return d
}

func (d *Document) Align(a Align) *Document {
	d.buf.Write([]byte{esc, 'a', byte(a)})
	return d
}

func (d *Document) Bold(on bool) *Document {
	var v byte
	if on {
		v = 1
	}
	d.buf.Write([]byte{esc, 'E', v})
	return d
}

func (d *Document) Size(s Size) *Document {
	d.buf.Write([]byte{gs, '!', byte(s)})
	return d
}

// Line writes s, wrapped to the paper width.
func (d *Document) Line(s string) *Document {
	for _, part := range wrap(s, d.width) {
		d.buf.WriteString(part)
		d.buf.WriteByte(lf)
	}
	return d
}

func (d *Document) Linef(format string, args ...any) *Document {
	return d.Line(fmt.Sprintf(format, args...))
}

// Rule prints a full-width line of ch.
func (d *Document) Rule(ch rune) *Document {
	d.buf.WriteString(strings.Repeat(string(ch), d.width))
	d.buf.WriteByte(lf)
	return d
}

// Pair prints left and right on one line, truncating left when both do not fit.
func (d *Document) Pair(left, right string) *Document {
	room := d.width - utf8.RuneCountInString(right) - 1
	left = truncate(left, max(room, 0))
	gap := d.width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	d.buf.WriteString(left)
	d.buf.WriteString(strings.Repeat(" ", max(gap, 1)))
	d.buf.WriteString(right)
	d.buf.WriteByte(lf)
	return d
}

// Item prints "name" on its own line when it is too long to share a line with
// the total, then "qty x price" against the total.
func (d *Document) Item(name string, qty int, price, total string) *Document {
	detail := fmt.Sprintf("  %d x %s", qty, price)
	if utf8.RuneCountInString(name)+utf8.RuneCountInString(total)+1 <= d.width && qty == 1 {
		return d.Pair(name, total)
	}
	d.Line(name)
	return d.Pair(detail, total)
}

// Cut feeds past the tear bar and cuts. Partial cuts leave a hinge.
func (d *Document) Cut(partial bool) *Document {
	mode := byte(0x00)
	if partial {
		mode = 0x01
	}
	d.Feed(3)
	d.buf.Write([]byte{gs, 'V', mode})
	return d
}

func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func wrap(s string, width int) []string {
	if utf8.RuneCountInString(s) <= width {
		return []string{s}
	}

	var lines []string
	var cur []rune
	for _, word := range strings.Fields(s) {
		w := []rune(word)
		for len(w) > width {
			if len(cur) > 0 {
				lines = append(lines, string(cur))
				cur = nil
			}
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(cur) == 0:
			cur = w
		case len(cur)+1+len(w) <= width:
			cur = append(append(cur, ' '), w...)
		default:
			lines = append(lines, string(cur))
			cur = w
		}
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}
