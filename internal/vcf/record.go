// Package vcf provides line-level VCF stream handling.
package vcf

import "strings"

// Fixed column layout of a VCF data line.
const (
	ChromColumn       = 0
	PosColumn         = 1
	FormatColumn      = 8
	FirstSampleColumn = 9

	// MinSampleFields is the smallest field count that carries sample data.
	MinSampleFields = FirstSampleColumn + 1
)

// Field separators.
const (
	FieldSep    = "\t"
	SubfieldSep = ":"
)

// Split splits text on sep, keeping empty segments.
// A trailing separator yields a trailing "" and text without sep yields a
// single element.
func Split(text, sep string) []string {
	return strings.Split(text, sep)
}

// IsHeader reports whether line is a header/comment line (empty or starting with '#').
func IsHeader(line string) bool {
	return line == "" || line[0] == '#'
}

// Genotype returns the first colon-delimited subfield of a sample value.
func Genotype(sample string) string {
	gt, _, _ := strings.Cut(sample, SubfieldSep)
	return gt
}

// Record is a single VCF data line split into its tab-separated fields.
type Record struct {
	Fields []string
}

// ParseRecord splits a data line on tabs. It never fails; callers check
// HasSamples before reading FORMAT or sample columns.
func ParseRecord(line string) Record {
	return Record{Fields: Split(line, FieldSep)}
}

// HasSamples returns true if the record has a FORMAT column and at least one sample.
func (r Record) HasSamples() bool {
	return len(r.Fields) >= MinSampleFields
}

// Chrom returns the CHROM column, or "" if absent.
func (r Record) Chrom() string {
	return r.field(ChromColumn)
}

// Pos returns the POS column as written, or "" if absent.
func (r Record) Pos() string {
	return r.field(PosColumn)
}

// Format returns the FORMAT column, or "" if absent.
func (r Record) Format() string {
	return r.field(FormatColumn)
}

// Samples returns the sample columns, or nil if there are none.
func (r Record) Samples() []string {
	if !r.HasSamples() {
		return nil
	}
	return r.Fields[FirstSampleColumn:]
}

// NumSamples returns the number of sample columns.
func (r Record) NumSamples() int {
	return len(r.Samples())
}

func (r Record) field(i int) string {
	if i < len(r.Fields) {
		return r.Fields[i]
	}
	return ""
}
