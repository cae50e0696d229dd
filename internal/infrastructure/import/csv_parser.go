package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// encodingSampleSize is how much of the input is inspected to pick a decoding
const encodingSampleSize = 4096

// Encoding is the character encoding detected for an input
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
)

// CSVParser reads headerless delimited records and trims every field. Input
// is UTF-8 with an optional BOM; anything else is decoded as Windows-1252, the
// encoding the ERP writes by default.
type CSVParser struct {
	delimiter  rune
	encoding   Encoding
	reader     *csv.Reader
	lastLine   int
	blankLines []int
	held       *Record
	heldErr    error
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter (default is semicolon)
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// NewCSVParser creates a new CSV parser from a reader. An input without any
// bytes returns ErrEmptyFile.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		delimiter: ';',
		encoding:  EncodingUTF8,
	}

	for _, opt := range opts {
		opt(parser)
	}

	bufReader := bufio.NewReaderSize(r, encodingSampleSize)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	bom, err := bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if bytes.HasPrefix(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = bufReader.Discard(3)
	}

	content, err := bufReader.Peek(encodingSampleSize)
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read file for encoding detection: %w", err)
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}

	var source io.Reader = bufReader
	if !validUTF8Prefix(content, len(content) == encodingSampleSize) {
		parser.encoding = EncodingWindows1252
		source = transform.NewReader(bufReader, charmap.Windows1252.NewDecoder())
	}

	parser.reader = csv.NewReader(source)
	parser.reader.Comma = parser.delimiter
	parser.reader.TrimLeadingSpace = parser.delimiter != '\t'
	parser.reader.FieldsPerRecord = -1 // Allow variable number of fields

	return parser, nil
}

// validUTF8Prefix checks content, ignoring a rune cut off at the end of a
// truncated sample.
func validUTF8Prefix(content []byte, truncated bool) bool {
	if truncated {
		for i := 0; i < utf8.UTFMax && len(content) > 0; i++ {
			r, size := utf8.DecodeLastRune(content)
			if r != utf8.RuneError || size != 1 {
				break
			}
			content = content[:len(content)-1]
		}
	}
	return utf8.Valid(content)
}

// Encoding returns the encoding the input was decoded from
func (p *CSVParser) Encoding() Encoding {
	return p.encoding
}

// Record is one parsed line with its 1-indexed line number
type Record struct {
	LineNumber int
	Fields     []string
}

// Field returns the i-th field, or "" when the record is shorter
func (r *Record) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// ReadRecord reads the next record. A line that cannot be parsed, and a blank
// line between two records, yields a RowError carrying its line number;
// reading may continue afterwards. Blank lines after the last record are
// ignored.
func (p *CSVParser) ReadRecord() (*Record, error) {
	if len(p.blankLines) == 0 && p.held == nil && p.heldErr == nil {
		p.held, p.heldErr = p.read()
		if p.heldErr == io.EOF {
			p.heldErr = nil
			return nil, io.EOF
		}
	}

	if len(p.blankLines) > 0 {
		line := p.blankLines[0]
		p.blankLines = p.blankLines[1:]
		return nil, NewRowError(line, "", ErrCodeImportMalformedRow, "blank line")
	}

	rec, err := p.held, p.heldErr
	p.held, p.heldErr = nil, nil
	return rec, err
}

// read pulls one record from the csv reader and queues the blank lines the
// reader skipped before it
func (p *CSVParser) read() (*Record, error) {
	fields, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			p.queueBlankLines(parseErr.StartLine)
			p.lastLine = parseErr.Line
			return nil, NewRowError(parseErr.StartLine, "", ErrCodeImportMalformedRow, parseErr.Err.Error())
		}
		return nil, fmt.Errorf("error reading line %d: %w", p.lastLine+1, err)
	}

	line, _ := p.reader.FieldPos(0)
	p.queueBlankLines(line)

	last := len(fields) - 1
	lastLine, _ := p.reader.FieldPos(last)
	p.lastLine = lastLine + strings.Count(fields[last], "\n")

	for i, f := range fields {
		fields[i] = trimSpaces(f)
	}
	return &Record{LineNumber: line, Fields: fields}, nil
}

// queueBlankLines records every line between the end of the previous record
// and start
func (p *CSVParser) queueBlankLines(start int) {
	for l := p.lastLine + 1; l < start; l++ {
		p.blankLines = append(p.blankLines, l)
	}
}

// trimSpaces trims whitespace from a string
func trimSpaces(s string) string {
	start := 0
	end := len(s)

	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:])
		if !isWhitespace(r) {
			break
		}
		start += size
	}

	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		if !isWhitespace(r) {
			break
		}
		end -= size
	}

	return s[start:end]
}

// isWhitespace checks if a rune is whitespace
func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '\u00a0':
		return true
	}
	return false
}
