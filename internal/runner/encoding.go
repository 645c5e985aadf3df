// ABOUTME: Resolves output encoding labels (latin1, shift_jis, windows-1252...) to decoders
// ABOUTME: UTF-8 output is passed through untouched

package runner

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Decoder returns a decoder converting the named encoding to UTF-8, or nil
// when the output is already UTF-8. Names are WHATWG labels.
func Decoder(name string) (*encoding.Decoder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return nil, nil
	}
	return enc.NewDecoder(), nil
}
