package report

// tokenize.go turns raw bytes into rows of cells.
//
// Decoding is lossy: invalid sequences become U+FFFD and never fail a run.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmptyInput is returned when the input decodes to nothing.
var ErrEmptyInput = errors.New("empty file: input decodes to zero rows")

// Decoder returns the decoder for a named input encoding.
// Supported: utf-8 (default), windows-1252, iso-8859-1, utf-16le, utf-16be.
// AutoEncoding is handled by Decode, not here.
func Decoder(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		// UTF8BOM drops a leading BOM and replaces invalid bytes.
		return unicode.UTF8BOM.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "utf-16le", "utf-16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// AutoEncoding makes Decode pick the character set from the input.
const AutoEncoding = "auto"

// detectSampleSize bounds how much input the charset detector inspects.
const detectSampleSize = 64 << 10

// CheckEncoding reports whether name is AutoEncoding or has a Decoder.
func CheckEncoding(name string) error {
	if isAuto(name) {
		return nil
	}
	_, err := Decoder(name)
	return err
}

func isAuto(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), AutoEncoding)
}

// DetectEncoding guesses the Decoder name for data. A byte order mark
// decides outright and valid UTF-8 stays UTF-8. Anything else goes to the
// charset detector, whose single-byte guesses collapse to windows-1252
// unless it is sure of iso-8859-1.
func DetectEncoding(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return "utf-8"
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return "utf-16le"
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return "utf-16be"
	case utf8.Valid(data):
		return "utf-8"
	}

	best, err := chardet.NewTextDetector().DetectBest(data[:min(len(data), detectSampleSize)])
	if err != nil {
		return "windows-1252"
	}
	switch strings.ToLower(best.Charset) {
	case "utf-16le":
		return "utf-16le"
	case "utf-16be":
		return "utf-16be"
	case "iso-8859-1":
		return "iso-8859-1"
	default:
		return "windows-1252"
	}
}

// Decode reads r fully and converts it to UTF-8 text.
func Decode(r io.Reader, encodingName string) (string, error) {
	if isAuto(encodingName) {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		encodingName = DetectEncoding(data)
		r = bytes.NewReader(data)
	}

	dec, err := Decoder(encodingName)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return "", fmt.Errorf("decode input: %w", err)
	}
	return string(data), nil
}

// Tokenize decodes r and splits it into rows.
// Returns ErrEmptyInput if nothing is left after decoding.
func Tokenize(r io.Reader, encodingName string) ([]RawRow, error) {
	text, err := Decode(r, encodingName)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrEmptyInput
	}
	return SplitRows(text), nil
}

// SplitRows splits text on line breaks, then each line on tabs.
// Cells are not trimmed. A trailing line break yields a final empty row so
// that index+1 is always the raw line number. "\r\n" counts as one break.
func SplitRows(text string) []RawRow {
	lines := strings.Split(text, "\n")
	rows := make([]RawRow, len(lines))
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		rows[i] = strings.Split(line, "\t")
	}
	return rows
}
