// Package mjpeg implements the byte-exact multipart/x-mixed-replace push
// protocol: the preamble sent once per client and the per-part framing
// sent on every subsequent fan-out.
package mjpeg

import (
	"fmt"
	"io"
	"time"
)

// Boundary is the literal multipart boundary string used on the wire.
const Boundary = "boundarydonotcross"

const preamble = "HTTP/1.0 200 OK\r\n" +
	"Access-Control-Allow-Origin: *\r\n" +
	"Cache-Control: no-store, no-cache, must-revalidate, pre-check=0, post-check=0, max-age=0\r\n" +
	"Pragma: no-cache\r\n" +
	"Expires: Mon, 3 Jan 2000 12:34:56 GMT\r\n" +
	"Content-Type: multipart/x-mixed-replace;boundary=" + Boundary + "\r\n" +
	"\r\n" +
	"--" + Boundary + "\r\n"

// Timestamp formats t as the "<sec>.<usec>" pair used by X-Timestamp and
// the /snapshot response header. Nanoseconds are truncated to
// microseconds, not rounded, to match the on-wire precision this
// protocol has always used.
func Timestamp(t time.Time) string {
	usec := t.Nanosecond() / 1000
	return fmt.Sprintf("%d.%06d", t.Unix(), usec)
}

// Writer emits the preamble and parts of the push protocol to an
// underlying byte sink, typically a bufio.Writer wrapping a hijacked
// connection.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for MJPEG push writes.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WritePreamble sends the one-time status line, headers, and first
// boundary, as a single contiguous write.
func (w *Writer) WritePreamble() error {
	_, err := io.WriteString(w.w, preamble)
	return err
}

// WritePart sends one boundary-delimited JPEG segment: its headers, the
// payload itself, and the trailing boundary. at is sampled by the
// caller at the moment of the actual write.
func (w *Writer) WritePart(jpeg []byte, at time.Time) error {
	header := fmt.Sprintf(
		"Content-Type: image/jpeg\r\nContent-Length: %d\r\nX-Timestamp: %s\r\n\r\n",
		len(jpeg), Timestamp(at),
	)
	if _, err := io.WriteString(w.w, header); err != nil {
		return err
	}
	if _, err := w.w.Write(jpeg); err != nil {
		return err
	}
	_, err := io.WriteString(w.w, "\r\n--"+Boundary+"\r\n")
	return err
}
