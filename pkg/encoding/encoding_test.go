package encoding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func TestDecode_UTF8Passthrough(t *testing.T) {
	in := []byte(`<?xml version="1.0" encoding="utf-8"?><rss/>`)
	out, name, err := Decode(in, "")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", name)
	assert.Equal(t, in, out)
}

func TestDecode_UTF8BOM(t *testing.T) {
	in := append([]byte{0xEF, 0xBB, 0xBF}, []byte("<rss/>")...)
	out, name, err := Decode(in, "")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", name)
	assert.Equal(t, []byte("<rss/>"), out, "BOM must be stripped")
}

func TestDecode_Latin1FromXMLDecl(t *testing.T) {
	src := `<?xml version="1.0" encoding="iso-8859-1"?><rss><channel><title>caf` + "\xe9" + `</title></channel></rss>`
	out, name, err := Decode([]byte(src), "")
	require.NoError(t, err)
	assert.Contains(t, name, "windows-1252") // iso-8859-1 is windows-1252 per WHATWG
	assert.Contains(t, string(out), "café")
}

func TestDecode_Latin1FromContentType(t *testing.T) {
	enc := charmap.ISO8859_1.NewEncoder()
	raw, _, err := transform.Bytes(enc, []byte("<title>café</title>"))
	require.NoError(t, err)

	out, _, err := Decode(raw, "text/xml; charset=iso-8859-1")
	require.NoError(t, err)
	assert.Contains(t, string(out), "café")
}

func TestDecode_UTF16BOM(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	raw, _, err := transform.Bytes(enc, []byte("<rss/>"))
	require.NoError(t, err)

	out, name, err := Decode(raw, "")
	require.NoError(t, err)
	assert.Equal(t, "utf-16le", name)
	assert.Equal(t, "<rss/>", string(out))
}

func TestXMLCharsetReader(t *testing.T) {
	r, err := XMLCharsetReader("iso-8859-1", strings.NewReader("caf\xe9"))
	require.NoError(t, err)
	buf := make([]byte, 16)
	n, _ := r.Read(buf)
	assert.Contains(t, string(buf[:n]), "café")
}

func TestXMLCharsetReader_UnknownLabel(t *testing.T) {
	_, err := XMLCharsetReader("no-such-charset", strings.NewReader("x"))
	require.Error(t, err)
}
