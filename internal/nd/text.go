package nd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/23skdu/strata/internal/layout"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrStreamFormat is wrapped by every StreamFormatError.
var ErrStreamFormat = errors.New("nd: malformed array text")

// StreamFormatError reports text input that does not follow the array text
// format. Err carries the underlying cause when there is one, such as a
// strconv error or io.ErrUnexpectedEOF.
type StreamFormatError struct {
	Reason string
	Token  string
	Err    error
}

func (e *StreamFormatError) Error() string {
	msg := "nd: " + e.Reason
	if e.Token != "" {
		msg += fmt.Sprintf(" (at %q)", e.Token)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StreamFormatError) Is(target error) bool { return target == ErrStreamFormat }

func (e *StreamFormatError) Unwrap() error { return e.Err }

// WriteText writes a vector or matrix view in the text format:
//
//	3
//	{ 1 2 3 }
//
//	2 x 3
//	{ 1 2 3
//	 4 5 6 }
func WriteText[T any](w io.Writer, v View[T]) error {
	v.live()
	bw := bufio.NewWriter(w)
	switch v.Rank() {
	case 1:
		fmt.Fprintf(bw, "%d\n{", v.Extent(0))
		for i := 0; i < v.Extent(0); i++ {
			fmt.Fprint(bw, " ", v.At(i))
		}
	case 2:
		fmt.Fprintf(bw, "%d x %d\n{", v.Extent(0), v.Extent(1))
		for i := 0; i < v.Extent(0); i++ {
			if i > 0 {
				bw.WriteString("\n")
			}
			for j := 0; j < v.Extent(1); j++ {
				fmt.Fprint(bw, " ", v.At(i, j))
			}
		}
	default:
		return fmt.Errorf("nd: text format needs rank 1 or 2, got %d: %w", v.Rank(), layout.ErrPrecondition)
	}
	bw.WriteString(" }")
	return bw.Flush()
}

// FormatText renders v with WriteText.
func FormatText[T any](v View[T]) (string, error) {
	var sb strings.Builder
	if err := WriteText(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// TextReader tokenizes array text. Input is NFKC normalized first, so
// full-width digits and signs parse like their ASCII forms. Once a read fails
// the reader keeps returning that error.
type TextReader struct {
	r   *bufio.Reader
	err error
}

// NewTextReader wraps r. Several arrays can be read in sequence from one
// TextReader; it buffers, so r itself should not be read from afterwards.
func NewTextReader(r io.Reader) *TextReader {
	return &TextReader{r: bufio.NewReader(transform.NewReader(r, norm.NFKC))}
}

// Err returns the error that put the reader in its failed state, if any.
func (t *TextReader) Err() error { return t.err }

func textReader(r io.Reader) *TextReader {
	if t, ok := r.(*TextReader); ok {
		return t
	}
	return NewTextReader(r)
}

// Read lets a TextReader stand in for its normalized input.
func (t *TextReader) Read(p []byte) (int, error) { return t.r.Read(p) }

// token returns the next whitespace separated token. Braces are tokens of
// their own even when not separated by whitespace.
func (t *TextReader) token() (string, error) {
	var sb strings.Builder
	for {
		c, _, err := t.r.ReadRune()
		if err != nil {
			if sb.Len() > 0 && err == io.EOF {
				return sb.String(), nil
			}
			return "", err
		}
		switch {
		case unicode.IsSpace(c):
			if sb.Len() > 0 {
				return sb.String(), nil
			}
		case c == '{' || c == '}':
			if sb.Len() > 0 {
				_ = t.r.UnreadRune()
				return sb.String(), nil
			}
			return string(c), nil
		default:
			sb.WriteRune(c)
		}
	}
}

func (t *TextReader) fail(err error) error {
	t.err = err
	return err
}

func (t *TextReader) next(what string) (string, error) {
	tok, err := t.token()
	if err == io.EOF {
		if what == "size" {
			return "", &StreamFormatError{Reason: "missing " + what, Err: io.EOF}
		}
		return "", &StreamFormatError{Reason: "missing " + what, Err: io.ErrUnexpectedEOF}
	}
	if err != nil {
		return "", &StreamFormatError{Reason: "reading " + what, Err: err}
	}
	return tok, nil
}

func (t *TextReader) expect(want string) error {
	tok, err := t.next(strconv.Quote(want))
	if err != nil {
		return err
	}
	if tok != want {
		return &StreamFormatError{Reason: "expected " + strconv.Quote(want), Token: tok}
	}
	return nil
}

func (t *TextReader) extent(what string) (int, error) {
	tok, err := t.next(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, &StreamFormatError{Reason: "bad " + what, Token: tok, Err: err}
	}
	return n, nil
}

// values reads n values in textual order, followed by the closing brace.
// The slice grows with the input, so a header claiming more values than the
// stream holds fails without allocating for the claim.
func values[T Scalar](t *TextReader, n int) ([]T, error) {
	vals := make([]T, 0, min(n, 1024))
	for k := 0; k < n; k++ {
		tok, err := t.next("value")
		if err != nil {
			return nil, err
		}
		if tok == "}" {
			return nil, &StreamFormatError{Reason: fmt.Sprintf("expected %d values, got %d", n, k), Token: tok}
		}
		x, err := parseScalar[T](tok)
		if err != nil {
			return nil, &StreamFormatError{Reason: "bad value", Token: tok, Err: err}
		}
		vals = append(vals, x)
	}
	tok, err := t.next(`"}"`)
	if err != nil {
		return nil, err
	}
	if tok != "}" {
		return nil, &StreamFormatError{Reason: fmt.Sprintf("more than %d values", n), Token: tok}
	}
	return vals, nil
}

// ReadVector reads one vector in the text format from r. Pass a TextReader to
// read several arrays from the same stream.
func ReadVector[T Scalar](r io.Reader) (*Array[T], error) {
	t := textReader(r)
	if t.err != nil {
		return nil, t.err
	}
	n, err := t.extent("size")
	if err != nil {
		return nil, t.fail(err)
	}
	if err := t.expect("{"); err != nil {
		return nil, t.fail(err)
	}
	vals, err := values[T](t, n)
	if err != nil {
		return nil, t.fail(err)
	}
	a := NewVector[T](n)
	copy(a.buf, vals)
	return a, nil
}

// ReadMatrix reads one matrix in the text format from r into a new array of
// the given order. Values appear in row-major order in the text whatever the
// target order.
func ReadMatrix[T Scalar](r io.Reader, order layout.Order) (*Array[T], error) {
	t := textReader(r)
	if t.err != nil {
		return nil, t.err
	}
	rows, err := t.extent("size")
	if err != nil {
		return nil, t.fail(err)
	}
	if err := t.expect("x"); err != nil {
		return nil, t.fail(err)
	}
	cols, err := t.extent("column count")
	if err != nil {
		return nil, t.fail(err)
	}
	if err := t.expect("{"); err != nil {
		return nil, t.fail(err)
	}
	n, ok := layout.Product([]int{rows, cols})
	if !ok {
		return nil, t.fail(&StreamFormatError{Reason: fmt.Sprintf("%d x %d overflows the element count", rows, cols)})
	}
	vals, err := values[T](t, n)
	if err != nil {
		return nil, t.fail(err)
	}
	a := NewMatrix[T](rows, cols, order)
	for k, x := range vals {
		a.view.Set(x, k/cols, k%cols)
	}
	return a, nil
}

func parseScalar[T Scalar](tok string) (T, error) {
	var zero T
	if isFloat[T]() {
		bits := 64
		if _, ok := any(zero).(float32); ok {
			bits = 32
		}
		f, err := strconv.ParseFloat(tok, bits)
		return T(f), err
	}
	if zero-1 > 0 {
		u, err := strconv.ParseUint(tok, 10, 64)
		if err == nil && uint64(T(u)) != u {
			err = strconv.ErrRange
		}
		return T(u), err
	}
	i, err := strconv.ParseInt(tok, 10, 64)
	if err == nil && int64(T(i)) != i {
		err = strconv.ErrRange
	}
	return T(i), err
}
