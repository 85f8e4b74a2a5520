// Package boundfmt renders printf-style event templates into fixed-size
// buffers. A template always receives the instance identifier as its first
// argument, followed by a fixed number of double values.
package boundfmt

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxArity is the largest number of double arguments a template can take.
const MaxArity = 5

// NumericMargin is the room reserved for numbers expanding beyond the width
// they take in the template.
const NumericMargin = 20

// maxFieldDigits limits width and precision to two decimal digits.
const maxFieldDigits = 2

// ErrFormatStringInvalid is returned when a template cannot be compiled.
var ErrFormatStringInvalid = errors.New("invalid format string")

// Bound returns the buffer capacity for a message of an instance with the
// given identifier length and template length. It counts the terminating
// zero byte, so a message has at most Bound-1 bytes of text.
func Bound(identifierLen, formatLen int) int {
	return identifierLen + formatLen + 1 + NumericMargin
}

type argKind int

const (
	argNone argKind = iota
	argIdentifier
	argFloat
	argSigned
	argUnsigned
)

type piece struct {
	literal string

	kind    argKind
	spec    string
	padSpec string
	// zeroSpec drops '#' for hex, which C leaves off a zero value.
	zeroSpec string
	upper    bool
	plus     bool
	space    bool
}

// A Template is a compiled format string with its arity.
type Template struct {
	format     string
	arity      int
	numNumeric int
	pieces     []piece
}

// Compile parses a format string. The first conversion must be %s, which
// receives the identifier; the remaining conversions consume doubles in order
// and there must be no more of them than arity.
func Compile(format string, arity int) (*Template, error) {
	if arity < 0 || arity > MaxArity {
		return nil, fmt.Errorf("boundfmt: %w: arity %d is not in [0, %d]",
			ErrFormatStringInvalid, arity, MaxArity)
	}

	t := &Template{format: format, arity: arity}
	p := parser{format: format}

	var literal strings.Builder

	numConv := 0

	for !p.done() {
		c := p.next()
		if c != '%' {
			literal.WriteByte(c)
			continue
		}

		if p.peek() == '%' {
			p.next()
			literal.WriteByte('%')

			continue
		}

		conv, err := p.conversion()
		if err != nil {
			return nil, err
		}

		err = t.checkOrder(conv, numConv)
		if err != nil {
			return nil, err
		}

		numConv++

		if literal.Len() > 0 {
			t.pieces = append(t.pieces, piece{literal: literal.String()})
			literal.Reset()
		}

		t.pieces = append(t.pieces, conv)
	}

	if literal.Len() > 0 {
		t.pieces = append(t.pieces, piece{literal: literal.String()})
	}

	if t.numNumeric > arity {
		return nil, fmt.Errorf(
			"boundfmt: %w: %q needs %d values, only %d are provided",
			ErrFormatStringInvalid, format, t.numNumeric, arity)
	}

	return t, nil
}

func (t *Template) checkOrder(conv piece, index int) error {
	if index == 0 && conv.kind != argIdentifier {
		return fmt.Errorf(
			"boundfmt: %w: %q must start with %%s for the identifier",
			ErrFormatStringInvalid, t.format)
	}

	if index > 0 && conv.kind == argIdentifier {
		return fmt.Errorf("boundfmt: %w: %q uses %%s more than once",
			ErrFormatStringInvalid, t.format)
	}

	if conv.kind != argIdentifier {
		t.numNumeric++
	}

	return nil
}

// Format returns the source format string.
func (t *Template) Format() string {
	return t.format
}

// Arity returns the number of doubles the template is rendered with.
func (t *Template) Arity() int {
	return t.arity
}

// NumNumeric returns the number of numeric conversions in the template.
func (t *Template) NumNumeric() int {
	return t.numNumeric
}

// Bound returns the message buffer capacity for the identifier.
func (t *Template) Bound(identifier string) int {
	return Bound(len(identifier), len(t.format))
}

// Render writes the message into dst and zero fills the rest of dst. At most
// len(dst)-1 bytes of text are written; longer messages are cut. It returns
// the text length. args must hold at least NumNumeric values.
func (t *Template) Render(dst []byte, identifier string, args []float64) int {
	if len(dst) == 0 {
		return 0
	}

	w := boundedWriter{buf: dst[:0], limit: len(dst) - 1}
	next := 0

	for i := range t.pieces {
		pc := &t.pieces[i]

		switch pc.kind {
		case argNone:
			w.writeLiteral(pc.literal)
		case argIdentifier:
			fmt.Fprintf(&w, pc.spec, identifier)
		default:
			pc.render(&w, args[next])
			next++
		}

		if w.full() {
			break
		}
	}

	n := len(w.buf)
	clear(dst[n:])

	return n
}

// Sprint renders the message into a buffer of the bound capacity and returns
// the text.
func (t *Template) Sprint(identifier string, args ...float64) string {
	buf := make([]byte, t.Bound(identifier))
	n := t.Render(buf, identifier, args)

	return string(buf[:n])
}

func (pc *piece) render(w *boundedWriter, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		fmt.Fprintf(w, pc.padSpec, pc.special(v))
		return
	}

	switch pc.kind {
	case argFloat:
		fmt.Fprintf(w, pc.spec, v)
	case argSigned:
		fmt.Fprintf(w, pc.spec, truncate(v))
	case argUnsigned:
		u := uint64(truncate(v))
		if u == 0 {
			fmt.Fprintf(w, pc.zeroSpec, u)
			return
		}

		fmt.Fprintf(w, pc.spec, u)
	}
}

// special spells NaN and infinities the way C printf does.
func (pc *piece) special(v float64) string {
	s := "inf"
	if math.IsNaN(v) {
		s = "nan"
	}

	switch {
	case math.Signbit(v):
		s = "-" + s
	case pc.plus:
		s = "+" + s
	case pc.space:
		s = " " + s
	}

	if pc.upper {
		s = strings.ToUpper(s)
	}

	return s
}

// truncate converts toward zero, saturating at the int64 range. NaN and
// infinities never reach here.
func truncate(v float64) int64 {
	switch {
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}

	return int64(v)
}

type parser struct {
	format string
	pos    int
}

func (p *parser) done() bool {
	return p.pos >= len(p.format)
}

func (p *parser) next() byte {
	c := p.format[p.pos]
	p.pos++

	return c
}

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}

	return p.format[p.pos]
}

func (p *parser) fail(reason string) error {
	return fmt.Errorf("boundfmt: %w: %q at offset %d: %s",
		ErrFormatStringInvalid, p.format, p.pos, reason)
}

// conversion parses what follows a '%': flags, width, precision, length
// modifiers and the conversion character.
func (p *parser) conversion() (piece, error) {
	flags := p.flags()

	width, err := p.digits()
	if err != nil {
		return piece{}, err
	}

	precision := ""
	hasPrecision := false

	if p.peek() == '.' {
		p.next()

		hasPrecision = true

		precision, err = p.digits()
		if err != nil {
			return piece{}, err
		}

		if precision == "" {
			precision = "0"
		}
	}

	for strings.IndexByte("hlLqjzt", p.peek()) >= 0 && !p.done() {
		p.next()
	}

	if p.done() {
		return piece{}, p.fail("incomplete conversion")
	}

	verb := p.next()

	pc, err := p.classify(verb, flags)
	if err != nil {
		return piece{}, err
	}

	if pc.kind == argUnsigned {
		flags = strings.NewReplacer("+", "", " ", "").Replace(flags)
	}

	goVerb := verb

	switch verb {
	case 'i', 'u':
		goVerb = 'd'
	case 'g', 'G':
		if !hasPrecision {
			hasPrecision = true
			precision = "6"
		}
	}

	spec := "%" + flags + width
	if hasPrecision {
		spec += "." + precision
	}

	pc.spec = spec + string(goVerb)
	pc.zeroSpec = pc.spec
	if verb == 'x' || verb == 'X' {
		pc.zeroSpec = strings.Replace(pc.spec, "#", "", 1)
	}
	pc.padSpec = "%" + leftAlign(flags) + width + "s"

	return pc, nil
}

func (p *parser) classify(verb byte, flags string) (piece, error) {
	pc := piece{
		plus:  strings.Contains(flags, "+"),
		space: strings.Contains(flags, " "),
		upper: verb == 'F' || verb == 'E' || verb == 'G',
	}

	switch verb {
	case 's':
		pc.kind = argIdentifier
	case 'f', 'F', 'e', 'E', 'g', 'G':
		pc.kind = argFloat
	case 'd', 'i':
		pc.kind = argSigned
	case 'u', 'x', 'X', 'o':
		pc.kind = argUnsigned
	default:
		return piece{}, p.fail(fmt.Sprintf("unsupported conversion %%%c",
			verb))
	}

	return pc, nil
}

func (p *parser) flags() string {
	var flags []byte

	for !p.done() && strings.IndexByte("-+ #0", p.peek()) >= 0 {
		c := p.next()
		if !strings.Contains(string(flags), string(c)) {
			flags = append(flags, c)
		}
	}

	return string(flags)
}

func (p *parser) digits() (string, error) {
	if p.peek() == '*' {
		return "", p.fail("'*' width and precision are not supported")
	}

	start := p.pos
	for !p.done() && p.peek() >= '0' && p.peek() <= '9' {
		p.next()
	}

	d := p.format[start:p.pos]
	if len(d) > maxFieldDigits {
		return "", p.fail("width or precision " + d + " is too large")
	}

	if d != "" {
		n, _ := strconv.Atoi(d)
		d = strconv.Itoa(n)
	}

	return d, nil
}

func leftAlign(flags string) string {
	if strings.Contains(flags, "-") {
		return "-"
	}

	return ""
}

// boundedWriter appends to buf up to limit bytes and drops the rest.
type boundedWriter struct {
	buf   []byte
	limit int
}

func (w *boundedWriter) Write(p []byte) (int, error) {
	room := w.limit - len(w.buf)
	if room > len(p) {
		room = len(p)
	}

	if room > 0 {
		w.buf = append(w.buf, p[:room]...)
	}

	return len(p), nil
}

func (w *boundedWriter) writeLiteral(s string) {
	room := w.limit - len(w.buf)
	if room > len(s) {
		room = len(s)
	}

	if room > 0 {
		w.buf = append(w.buf, s[:room]...)
	}
}

func (w *boundedWriter) full() bool {
	return len(w.buf) >= w.limit
}
