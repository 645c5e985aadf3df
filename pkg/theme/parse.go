// ABOUTME: Parses user colour specs (names, 256-colour indexes, #rrggbb, raw SGR) into Colors
// ABOUTME: Hex colours are decoded with go-colorful and emitted as 24-bit SGR

package theme

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]int{
	"black":   30,
	"red":     31,
	"green":   32,
	"yellow":  33,
	"blue":    34,
	"magenta": 35,
	"cyan":    36,
	"white":   37,
}

// ParseColor converts a colour spec into a Color. Accepted forms:
//
//	"yellow", "bright-red"   basic and bright ANSI colours
//	"208"                    256-colour palette index
//	"#ff8800"                24-bit colour
//	"\x1b[1;35m"             raw SGR sequence, used as is
//
// Basic colours reset other attributes first ("\x1b[0;33m").
func ParseColor(spec string) (Color, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Color{}, nil
	}
	if strings.HasPrefix(spec, "\x1b[") && strings.HasSuffix(spec, "m") {
		return NewColor(spec), nil
	}

	lower := strings.ToLower(spec)
	if strings.HasPrefix(lower, "#") {
		c, err := colorful.Hex(lower)
		if err != nil {
			return Color{}, fmt.Errorf("parsing colour %q: %w", spec, err)
		}
		r, g, b := c.RGB255()
		return NewColor(fmt.Sprintf("\x1b[0;38;2;%d;%d;%dm", r, g, b)), nil
	}

	if n, err := strconv.Atoi(lower); err == nil {
		if n < 0 || n > 255 {
			return Color{}, fmt.Errorf("colour index %d out of range 0-255", n)
		}
		return NewColor(fmt.Sprintf("\x1b[0;38;5;%dm", n)), nil
	}

	name, bright := strings.CutPrefix(lower, "bright-")
	code, ok := namedColors[name]
	if !ok {
		return Color{}, fmt.Errorf("unknown colour %q", spec)
	}
	if bright {
		code += 60
	}
	return NewColor(fmt.Sprintf("\x1b[0;%dm", code)), nil
}
