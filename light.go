package xrgrab

import (
	"fmt"
	"strings"
)

type LightType uint32

const (
	LightTypePoint       LightType = 0
	LightTypeDirectional LightType = 1
	LightTypeSpot        LightType = 2
	LightTypeAmbient     LightType = 3
)

func (t LightType) String() string {
	switch t {
	case LightTypePoint:
		return "point"
	case LightTypeDirectional:
		return "directional"
	case LightTypeSpot:
		return "spot"
	case LightTypeAmbient:
		return "ambient"
	default:
		return fmt.Sprintf("LightType(%d)", uint32(t))
	}
}

func (t *LightType) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "point":
		*t = LightTypePoint
	case "directional":
		*t = LightTypeDirectional
	case "spot":
		*t = LightTypeSpot
	case "ambient":
		*t = LightTypeAmbient
	default:
		return fmt.Errorf("unknown light type %q", text)
	}
	return nil
}

// LightComponent is the ECS component for lights. Position and direction come
// from the node's transform.
type LightComponent struct {
	Type      LightType
	Color     Color
	Intensity float32
}
