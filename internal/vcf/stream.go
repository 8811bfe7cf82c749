// Package vcf provides line-level VCF stream handling.
package vcf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
)

// CompressedSuffix marks a path as gzip-compressed.
const CompressedSuffix = ".gz"

const bufferSize = 64 * 1024

// IsCompressed reports whether path names a gzip-compressed file.
// Detection is by suffix only; file contents are not inspected.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, CompressedSuffix)
}

// LineReader reads lines from a plain or gzipped VCF file.
type LineReader struct {
	path       string
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	err        error
	done       bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// OpenReader opens path for line reading.
// Files ending in .gz are decompressed; "-" reads plain text from stdin.
func OpenReader(path string) (*LineReader, error) {
	if path == "-" {
		return NewLineReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Op: "read", Path: path, Err: err}
	}

	r := &LineReader{path: path, file: file}

	if IsCompressed(path) {
		r.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, &OpenError{Op: "read", Path: path, Err: fmt.Errorf("create gzip reader: %w", err)}
		}
		r.reader = bufio.NewReaderSize(r.gzipReader, bufferSize)
	} else {
		r.reader = bufio.NewReaderSize(file, bufferSize)
	}

	return r, nil
}

// NewLineReader creates a reader over an uncompressed io.Reader (e.g., stdin).
// Closing it does not close rd.
func NewLineReader(rd io.Reader) *LineReader {
	return &LineReader{
		path:   "-",
		reader: bufio.NewReaderSize(rd, bufferSize),
	}
}

// Next reads the next line with one "\n" or "\r\n" terminator removed.
// A final line without a terminator is still returned. A read or decode
// failure ends the stream; the partial line is discarded and Err reports
// the cause.
func (r *LineReader) Next() (string, bool) {
	if r.done || r.closed.Load() {
		return "", false
	}

	line, err := r.reader.ReadString('\n')
	if err != nil {
		r.done = true
		if err != io.EOF {
			r.err = &StreamError{Path: r.path, Line: r.lineNumber + 1, Err: err}
			return "", false
		}
		if line == "" {
			return "", false
		}
	}
	r.lineNumber++

	if l, ok := strings.CutSuffix(line, "\n"); ok {
		line = strings.TrimSuffix(l, "\r")
	}
	return line, true
}

// Err returns a *StreamError if the stream ended because of a read
// failure, or nil if it ended at a clean EOF.
func (r *LineReader) Err() error {
	return r.err
}

// LineNumber returns the number of lines read so far.
func (r *LineReader) LineNumber() int {
	return r.lineNumber
}

// Path returns the path the reader was opened with.
func (r *LineReader) Path() string {
	return r.path
}

// Close releases the gzip reader and the underlying file.
// A decode failure already reported by Err is not returned again.
// It is safe to call more than once; later calls return the first result.
func (r *LineReader) Close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		if r.gzipReader != nil {
			if err := r.gzipReader.Close(); err != nil && r.err == nil {
				r.closeErr = err
			}
		}
		if r.file != nil {
			if err := r.file.Close(); err != nil && r.closeErr == nil {
				r.closeErr = err
			}
		}
	})
	return r.closeErr
}

// LineWriter writes lines to a plain or gzipped VCF file.
type LineWriter struct {
	path       string
	w          *bufio.Writer
	file       *os.File
	gzipWriter *gzip.Writer

	closeOnce sync.Once
	closeErr  error
}

// OpenWriter creates path for line writing, truncating any existing file.
// Files ending in .gz are compressed; "-" writes plain text to stdout.
func OpenWriter(path string) (*LineWriter, error) {
	if path == "-" {
		return NewLineWriter(os.Stdout), nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, &OpenError{Op: "write", Path: path, Err: err}
	}

	lw := &LineWriter{path: path, file: file}

	if IsCompressed(path) {
		lw.gzipWriter = gzip.NewWriter(file)
		lw.w = bufio.NewWriterSize(lw.gzipWriter, bufferSize)
	} else {
		lw.w = bufio.NewWriterSize(file, bufferSize)
	}

	return lw, nil
}

// NewLineWriter creates an uncompressed writer over w (e.g., stdout).
// Closing it flushes buffered data but does not close w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{
		path: "-",
		w:    bufio.NewWriterSize(w, bufferSize),
	}
}

// WriteLine writes line followed by "\n".
func (lw *LineWriter) WriteLine(line string) error {
	if _, err := lw.w.WriteString(line); err != nil {
		return fmt.Errorf("write %s: %w", lw.path, err)
	}
	if err := lw.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write %s: %w", lw.path, err)
	}
	return nil
}

// Path returns the path the writer was opened with.
func (lw *LineWriter) Path() string {
	return lw.path
}

// Close flushes buffered lines, finalizes the gzip stream and closes the file.
// It is safe to call more than once; later calls return the first result.
func (lw *LineWriter) Close() error {
	lw.closeOnce.Do(func() {
		err := lw.w.Flush()
		if lw.gzipWriter != nil {
			if cerr := lw.gzipWriter.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		if lw.file != nil {
			if cerr := lw.file.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		if err != nil {
			lw.closeErr = fmt.Errorf("close %s: %w", lw.path, err)
		}
	})
	return lw.closeErr
}

// OpenError reports a failure to open an input or create an output.
type OpenError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	if e.Op == "write" {
		return fmt.Sprintf("cannot create output file %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("cannot open input file %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// StreamError reports a read or decode failure partway through a stream.
type StreamError struct {
	Path string
	Line int
	Err  error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("vcf read error at line %d of %s: %v", e.Line, e.Path, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// IsTruncated reports whether err is a StreamError caused by a stream
// that ended before its data was complete.
func IsTruncated(err error) bool {
	var se *StreamError
	if !errors.As(err, &se) {
		return false
	}
	return errors.Is(se.Err, io.ErrUnexpectedEOF)
}
