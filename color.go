package xrgrab

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// Color is a 0xRRGGBB value, the way scene files and materials spell colours.
type Color uint32

const (
	ColorBlack Color = 0x000000
	ColorWhite Color = 0xffffff
	ColorGreen Color = 0x00ff00
)

// ParseColor accepts "#rrggbb", "0xrrggbb" or a decimal integer.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	var (
		v   uint64
		err error
	)
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		v, err = strconv.ParseUint(hex, 16, 32)
	} else {
		v, err = strconv.ParseUint(s, 0, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidColor, s, err)
	}
	if v > 0xffffff {
		return 0, fmt.Errorf("%w %q: out of range", ErrInvalidColor, s)
	}
	return Color(v), nil
}

func (c Color) RGB() mgl32.Vec3 {
	return mgl32.Vec3{
		float32((c>>16)&0xff) / 255,
		float32((c>>8)&0xff) / 255,
		float32(c&0xff) / 255,
	}
}

func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c))
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected a scalar", ErrInvalidColor, value.Line)
	}
	return c.UnmarshalText([]byte(value.Value))
}
