package interval

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInput = "chr\tstart\tend\tname\trate\n" +
	"chr1\t0\t200\tw1\t0.1\n" +
	"chr1\t200\t300\tw2\t0.4\n" +
	"chr2\t1000\t1500\tw3\t1.25\n"

func TestParser_ParseRecords(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(sampleInput))
	require.NoError(t, err)
	assert.Equal(t, "chr\tstart\tend\tname\trate", p.Header())

	r, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, Record{Chrom: "chr1", Start: 0, End: 200, Rate: 0.1}, *r)

	r, err = p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, int64(200), r.Start)
	assert.Equal(t, int64(300), r.End)

	r, err = p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "chr2", r.Chrom)
	assert.Equal(t, 1.25, r.Rate)

	r, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, r)

	assert.Equal(t, Stats{Rows: 3}, p.Stats())
}

func TestParser_WhitespaceDelimited(t *testing.T) {
	input := "chr start end name rate\n" +
		"chrX   10  20 a 0.5\n"

	p, err := NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	r, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, Record{Chrom: "chrX", Start: 10, End: 20, Rate: 0.5}, *r)
}

func TestParser_NoTrailingNewline(t *testing.T) {
	input := "header\n" + "chr1\t5\t9\tx\t2"

	p, err := NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	r, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, int64(9), r.End)

	r, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestParser_SkipsBlankAndCommentLinesAfterHeader(t *testing.T) {
	input := "chr\tstart\tend\tname\trate\n\n# note\nchr1\t1\t2\tx\t3\n\r\n"

	p, err := NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "chr\tstart\tend\tname\trate", p.Header())

	r, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "chr1", r.Chrom)

	r, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestParser_HashPrefixedHeader(t *testing.T) {
	input := "#chrom\tstart\tend\tname\trate\n" +
		"chr1\t0\t200\tw1\t0.1\n" +
		"chr1\t200\t300\tw2\t0.4\n"

	p, err := NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "#chrom\tstart\tend\tname\trate", p.Header())

	set, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{Chrom: "chr1", Start: 0, End: 200, Rate: 0.1},
		{Chrom: "chr1", Start: 200, End: 300, Rate: 0.4},
	}, set["chr1"])
	assert.Equal(t, Stats{Rows: 2}, p.Stats())
}

func TestParser_FirstLineIsAlwaysHeader(t *testing.T) {
	for _, first := range []string{"", "# generated", "anything at all"} {
		p, err := NewParserFromReader(strings.NewReader(first + "\nchr1\t0\t10\tx\t1\n"))
		require.NoError(t, err)
		assert.Equal(t, first, p.Header())

		set, err := Load(p)
		require.NoError(t, err)
		assert.Len(t, set["chr1"], 1, "header %q", first)
	}
}

func TestParser_WrongFieldCount(t *testing.T) {
	input := "header\n" +
		"chr1\t0\t200\tw1\t0.1\n" +
		"chr1\t200\t300\t0.4\n"

	p, err := NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	_, err = p.Next()
	require.NoError(t, err)

	_, err = p.Next()
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Line)
	assert.Contains(t, pe.Error(), "expected 5 fields, found 4")
}

func TestParser_NoHeader(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader(""))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Message, "no header")
}

func TestParser_EmptyChromosome(t *testing.T) {
	for _, row := range []string{"\t0\t10\tx\t1", " \t0\t10\tx\t1"} {
		p, err := NewParserFromReader(strings.NewReader("header\n" + row + "\n"))
		require.NoError(t, err)

		_, err = p.Next()
		var pe *ParseError
		require.ErrorAs(t, err, &pe, "row %q", row)
		assert.Equal(t, 2, pe.Line)
		assert.Contains(t, pe.Message, "empty chromosome")
	}
}

func TestParser_DefaultsAndDrops(t *testing.T) {
	tests := []struct {
		name      string
		row       string
		want      *Record
		dropped   int
		defaulted int
	}{
		{
			name: "valid",
			row:  "chr1\t0\t10\tx\t1.5",
			want: &Record{Chrom: "chr1", Start: 0, End: 10, Rate: 1.5},
		},
		{
			name:      "bad start defaults to zero",
			row:       "chr1\tabc\t10\tx\t1.5",
			want:      &Record{Chrom: "chr1", Start: 0, End: 10, Rate: 1.5},
			defaulted: 1,
		},
		{
			name:      "bad rate defaults to zero",
			row:       "chr1\t0\t10\tx\tNA",
			want:      &Record{Chrom: "chr1", Start: 0, End: 10, Rate: 0},
			defaulted: 1,
		},
		{
			name:      "non-finite rate defaults to zero",
			row:       "chr1\t0\t10\tx\tNaN",
			want:      &Record{Chrom: "chr1", Start: 0, End: 10, Rate: 0},
			defaulted: 1,
		},
		{
			name:      "negative start defaults to zero",
			row:       "chr1\t-4\t10\tx\t1",
			want:      &Record{Chrom: "chr1", Start: 0, End: 10, Rate: 1},
			defaulted: 1,
		},
		{
			name:    "end zero is dropped",
			row:     "chr1\t0\t0\tx\t1.5",
			dropped: 1,
		},
		{
			name:      "unparsable end is dropped",
			row:       "chr1\t0\t.\tx\t1.5",
			dropped:   1,
			defaulted: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParserFromReader(strings.NewReader("header\n" + tt.row + "\n"))
			require.NoError(t, err)

			r, err := p.Next()
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, r)
			} else {
				require.NotNil(t, r)
				assert.Equal(t, *tt.want, *r)
			}

			st := p.Stats()
			assert.Equal(t, 1, st.Rows)
			assert.Equal(t, tt.dropped, st.Dropped)
			assert.Equal(t, tt.defaulted, st.Defaulted)
		})
	}
}

func TestNewParser_PlainAndGzip(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "rates.tsv")
	require.NoError(t, os.WriteFile(plain, []byte(sampleInput), 0o644))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sampleInput))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	gz := filepath.Join(dir, "rates.tsv.gz")
	require.NoError(t, os.WriteFile(gz, buf.Bytes(), 0o644))

	for _, path := range []string{plain, gz} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			p, err := NewParser(path)
			require.NoError(t, err)
			defer p.Close()

			set, err := Load(p)
			require.NoError(t, err)
			assert.Equal(t, []string{"chr1", "chr2"}, set.Names())
			assert.Len(t, set["chr1"], 2)
			assert.Len(t, set["chr2"], 1)
		})
	}
}

func TestNewParserFromReader_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sampleInput))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	p, err := NewParserFromReader(&buf)
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, "chr\tstart\tend\tname\trate", p.Header())

	set, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 3, set.Count())
}

func TestNewParser_MissingFile(t *testing.T) {
	_, err := NewParser(filepath.Join(t.TempDir(), "missing.tsv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
