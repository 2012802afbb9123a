package interval

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// NumFields is the number of fields every data row must carry:
// chromosome, start, end, an unused column, and rate.
const NumFields = 5

// Field positions within a data row.
const (
	colChrom = 0
	colStart = 1
	colEnd   = 2
	colRate  = 4
)

// Stats counts what the parser did with the rows it read.
type Stats struct {
	Rows      int // data rows read, header excluded
	Dropped   int // rows rejected by Keep
	Defaulted int // numeric fields replaced by their zero default
}

// Parser reads interval records from a tab or whitespace delimited file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	headerLine string
	stats      Stats
	logger     *zap.Logger
}

// NewParser creates a new interval parser for the given file.
// Supports both plain and gzipped input. A path of "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open interval file: %w", err)
	}

	p, err := newParser(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	p.file = file
	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
// Gzipped content is detected and decompressed.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	return newParser(r)
}

func newParser(r io.Reader) (*Parser, error) {
	p := &Parser{logger: zap.NewNop()}

	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read interval header: %w", err)
	}

	// Check for gzip magic number (0x1f, 0x8b)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = br
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// SetLogger sets the logger used for default-substitution messages.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// parseHeader consumes the first line as the header, whatever it holds.
// Its content is kept but not interpreted; fields are positional.
func (p *Parser) parseHeader() error {
	line, err := p.readLine()
	if err == io.EOF {
		return &ParseError{
			Line:    p.lineNumber,
			Message: "no header line found",
		}
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	p.headerLine = line
	return nil
}

// readLine returns the next line without its terminator.
// A final line lacking a newline is still returned.
func (p *Parser) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	p.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

func skipLine(line string) bool {
	return strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#")
}

// Next reads the next kept record.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.readLine()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read interval line: %w", err)
		}
		if skipLine(line) {
			continue
		}

		rec, err := p.parseLine(line)
		if err != nil {
			return nil, err
		}
		p.stats.Rows++

		if !Keep(*rec) {
			p.stats.Dropped++
			continue
		}
		return rec, nil
	}
}

// splitFields splits on tabs when the line has any, otherwise on whitespace.
func splitFields(line string) []string {
	if strings.Contains(line, "\t") {
		return strings.Split(line, "\t")
	}
	return strings.Fields(line)
}

// parseLine parses a single data line into a Record.
func (p *Parser) parseLine(line string) (*Record, error) {
	fields := splitFields(line)
	if len(fields) != NumFields {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected %d fields, found %d", NumFields, len(fields)),
		}
	}

	chrom := strings.TrimSpace(fields[colChrom])
	if chrom == "" {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: "empty chromosome field",
		}
	}

	return &Record{
		Chrom: chrom,
		Start: p.parseCoord(fields[colStart], "start"),
		End:   p.parseCoord(fields[colEnd], "end"),
		Rate:  p.parseRate(fields[colRate]),
	}, nil
}

// parseCoord parses a non-negative coordinate, substituting 0 on failure.
func (p *Parser) parseCoord(s, name string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		p.defaulted(name, s)
		return 0
	}
	return v
}

// parseRate parses a finite rate, substituting 0 on failure.
func (p *Parser) parseRate(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.defaulted("rate", s)
		return 0
	}
	return v
}

func (p *Parser) defaulted(field, value string) {
	p.stats.Defaulted++
	p.logger.Debug("unparsable field replaced by default",
		zap.Int("line", p.lineNumber),
		zap.String("field", field),
		zap.String("value", value))
}

// Header returns the header line.
func (p *Parser) Header() string {
	return p.headerLine
}

// Stats returns row counters accumulated so far.
func (p *Parser) Stats() Stats {
	return p.stats
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during interval parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("interval parse error at line %d: %s", e.Line, e.Message)
}
