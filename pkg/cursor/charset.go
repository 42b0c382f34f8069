package cursor

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// CharsetByName resolves an IANA charset name for WithFallbackCharset. "none" and ""
// disable decoding and return a nil encoding.
func CharsetByName(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q is not supported", name)
	}
	return enc, nil
}
