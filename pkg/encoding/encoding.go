// Package encoding converts raw feed bytes to UTF-8 before parsing.
//
// The character set is taken from, in priority order: a byte order mark, the
// caller-supplied content-type hint, and the document itself (XML declaration
// or sniffed heuristics). The parser core always receives UTF-8 text plus the
// resolved encoding name to echo into the result.
package encoding

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode converts data to UTF-8. contentType is the optional HTTP
// Content-Type header value ("" when unknown). It returns the converted
// bytes and the canonical name of the source encoding.
func Decode(data []byte, contentType string) ([]byte, string, error) {
	if name, ok := bomEncoding(data); ok {
		return decodeBOM(data, name)
	}

	enc, name, _ := charset.DetermineEncoding(data, contentType)
	if name == "utf-8" {
		return data, name, nil
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, "", fmt.Errorf("transcode from %s: %w", name, err)
	}
	return out, name, nil
}

// NewReader wraps r so that it yields UTF-8, using the same resolution order
// as Decode. Useful for callers streaming large responses.
func NewReader(r io.Reader, contentType string) (io.Reader, error) {
	cr, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("charset reader: %w", err)
	}
	return cr, nil
}

// XMLCharsetReader adapts charset lookup to the encoding/xml CharsetReader
// hook, for documents whose XML declaration names a non-UTF-8 charset.
func XMLCharsetReader(label string, input io.Reader) (io.Reader, error) {
	r, err := charset.NewReaderLabel(label, input)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	return r, nil
}

// bomEncoding sniffs a byte order mark.
func bomEncoding(data []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return "utf-8", true
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return "utf-16be", true
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return "utf-16le", true
	}
	return "", false
}

func decodeBOM(data []byte, name string) ([]byte, string, error) {
	if name == "utf-8" {
		return data[3:], name, nil
	}

	endianness := unicode.BigEndian
	if strings.HasSuffix(name, "le") {
		endianness = unicode.LittleEndian
	}
	dec := unicode.UTF16(endianness, unicode.ExpectBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return nil, "", fmt.Errorf("transcode from %s: %w", name, err)
	}
	return out, name, nil
}
