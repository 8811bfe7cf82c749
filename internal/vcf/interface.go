// Package vcf provides line-level VCF stream handling.
package vcf

// LineSource is the interface for readers that yield VCF text lines.
// Both plain and gzip-compressed readers implement this interface.
type LineSource interface {
	// Next reads the next line, stripped of its terminator.
	// Returns "", false when there are no more lines.
	Next() (string, bool)

	// Err returns the error that ended the stream early, or nil on clean EOF.
	Err() error

	// LineNumber returns the number of lines read so far.
	LineNumber() int
}

// LineSink is the interface for writers that accept VCF text lines.
type LineSink interface {
	// WriteLine writes a single line followed by a newline.
	WriteLine(line string) error
}
