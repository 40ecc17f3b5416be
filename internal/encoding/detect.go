package encoding

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset names the candidate encoding that decoded the input.
type Charset string

const (
	CharsetUTF8        Charset = "utf-8"
	CharsetUTF16LE     Charset = "utf-16le"
	CharsetUTF16BE     Charset = "utf-16be"
	CharsetLatin1      Charset = "iso-8859-1"
	CharsetWindows1252 Charset = "windows-1252"
)

// ErrExhausted is returned when no candidate encoding can decode the input.
var ErrExhausted = errors.New("no candidate encoding decodes the input")

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// NewUTF8Reader resolves the encoding of the input against a fixed, ordered
// candidate list and returns a reader that decodes the content to UTF-8,
// together with the charset that matched.
//
// Resolution order:
//  1. Check for BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. Validate if the content is valid UTF-8 and return as-is
//  3. Heuristic pick between Latin-1 and Windows-1252 via chardet
//  4. Fallback to Latin-1, the most permissive candidate
//
// Content that cannot be text at all (embedded NUL bytes) or that chardet
// attributes to a charset outside the candidate list fails with ErrExhausted
// rather than producing mojibake.
func NewUTF8Reader(r io.Reader) (io.Reader, Charset, error) {
	br := bufio.NewReader(r)

	// Peek enough bytes for BOM detection and charset heuristics.
	buf, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	// 1. Check for BOM.
	if bytes.HasPrefix(buf, bomUTF8) {
		// Discard the 3-byte UTF-8 BOM and return the rest as-is.
		_, _ = br.Discard(len(bomUTF8))
		return br, CharsetUTF8, nil
	}

	if bytes.HasPrefix(buf, bomUTF16LE) {
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, decoder), CharsetUTF16LE, nil
	}

	if bytes.HasPrefix(buf, bomUTF16BE) {
		decoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, decoder), CharsetUTF16BE, nil
	}

	// 2. If the content is valid UTF-8, return as-is.
	if utf8.Valid(buf) {
		return br, CharsetUTF8, nil
	}

	// NUL bytes mean binary content, not a single-byte text encoding.
	if bytes.IndexByte(buf, 0x00) >= 0 {
		return nil, "", ErrExhausted
	}

	// 3. Latin-1 and Windows-1252 both accept any byte sequence, so the
	// ordered attempt between them is settled heuristically.
	detector := chardet.NewTextDetector()

	result, detectErr := detector.DetectBest(buf)
	if detectErr == nil {
		switch result.Charset {
		case "UTF-8":
			return br, CharsetUTF8, nil
		case "ISO-8859-1":
			return transform.NewReader(br, charmap.ISO8859_1.NewDecoder()), CharsetLatin1, nil
		case "windows-1252":
			return transform.NewReader(br, charmap.Windows1252.NewDecoder()), CharsetWindows1252, nil
		case "UTF-16LE", "UTF-16BE", "UTF-32LE", "UTF-32BE",
			"Shift_JIS", "EUC-JP", "EUC-KR", "GB18030", "Big5", "KOI8-R":
			// Confidently something we have no candidate for.
			return nil, "", ErrExhausted
		}
	}

	// 4. Fallback to Latin-1.
	return transform.NewReader(br, charmap.ISO8859_1.NewDecoder()), CharsetLatin1, nil
}
