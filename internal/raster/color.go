package raster

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ParseColor understands CSS names, hex (#rgb, #rrggbb, with an optional
// alpha digit pair or digit) and rgb()/rgba() notation.
func ParseColor(s string) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "transparent" {
		return color.NRGBA{}, true
	}
	if c, ok := colornames.Map[s]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, true
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s)
	}
	if open := strings.IndexByte(s, '('); open > 0 && strings.HasSuffix(s, ")") {
		if fn := s[:open]; fn == "rgb" || fn == "rgba" {
			return parseFunc(s[open+1 : len(s)-1])
		}
	}
	return color.NRGBA{}, false
}

func parseHex(s string) (color.NRGBA, bool) {
	alpha := uint64(255)
	switch len(s) {
	case 5, 9:
		digits := s[len(s)-(len(s)-1)/4:]
		if len(digits) == 1 {
			digits += digits
		}
		a, err := strconv.ParseUint(digits, 16, 8)
		if err != nil {
			return color.NRGBA{}, false
		}
		alpha = a
		s = s[:len(s)-(len(s)-1)/4]
	case 4, 7:
	default:
		return color.NRGBA{}, false
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, false
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha)}, true
}

// parseFunc reads the channel list of rgb()/rgba(). Channels are 0-255 or
// percentages; alpha is 0-1 or a percentage.
func parseFunc(args string) (color.NRGBA, bool) {
	args = strings.ReplaceAll(args, "/", " ")
	fields := strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) != 3 && len(fields) != 4 {
		return color.NRGBA{}, false
	}
	ch := [4]uint8{3: 255}
	for i, f := range fields {
		pct := strings.HasSuffix(f, "%")
		v, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
		if err != nil {
			return color.NRGBA{}, false
		}
		switch {
		case pct:
			v = v / 100 * 255
		case i == 3:
			v *= 255
		}
		ch[i] = uint8(math.Round(math.Max(0, math.Min(255, v))))
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, true
}
