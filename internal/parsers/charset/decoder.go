package charset

import (
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding represents a text encoding
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1250 Encoding = "windows-1250"
	EncodingISO88592    Encoding = "iso-8859-2"
)

// DetectEncoding detects the encoding of a byte buffer. Valid UTF-8 is
// always preferred; Croatian portal exports that are not valid UTF-8 are
// in practice Windows-1250.
func DetectEncoding(data []byte) Encoding {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return EncodingUTF8
	}
	if utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1250
}

// Decode converts a byte buffer from the specified encoding to a UTF-8
// string. Data that is already valid UTF-8 is returned as-is regardless of
// the requested encoding, so an adapter with a stale encoding hint does not
// double-decode.
func Decode(data []byte, enc Encoding) (string, error) {
	if utf8.Valid(data) {
		// Strip a UTF-8 BOM if present
		if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
			data = data[3:]
		}
		return string(data), nil
	}

	var cm *charmap.Charmap
	switch enc {
	case EncodingISO88592:
		cm = charmap.ISO8859_2
	default:
		cm = charmap.Windows1250
	}

	decoded, _, err := transform.Bytes(cm.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// ToUTF8Reader wraps a reader with a decoder to convert to UTF-8
func ToUTF8Reader(r io.Reader, enc Encoding) io.Reader {
	switch enc {
	case EncodingWindows1250:
		return transform.NewReader(r, charmap.Windows1250.NewDecoder())
	case EncodingISO88592:
		return transform.NewReader(r, charmap.ISO8859_2.NewDecoder())
	default:
		return r
	}
}
