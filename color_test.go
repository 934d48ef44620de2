package xrgrab

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestParseColor(t *testing.T) {
	for in, want := range map[string]Color{
		"#aaaaaa":  0xaaaaaa,
		"0x00ff00": ColorGreen,
		"16777215": ColorWhite,
		" #000000": ColorBlack,
	} {
		got, err := ParseColor(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want, got, in)
		}
	}

	for _, in := range []string{"", "red", "#gg0000", "0x1000000", "-1"} {
		_, err := ParseColor(in)
		assert.ErrorIs(t, err, ErrInvalidColor, in)
	}
}

func TestColor_RGBAndString(t *testing.T) {
	c := Color(0xff8000)
	assertVecNear(t, mgl32.Vec3{1, 128.0 / 255, 0}, c.RGB())
	assert.Equal(t, "#ff8000", c.String())
	assert.Equal(t, "#000000", ColorBlack.String())
}
