package dataset

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeReader converts r to UTF-8. A leading byte order mark always wins over the named encoding.
func decodeReader(r io.Reader, name string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported encoding %q: %v", ErrFormat, name, err)
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}
