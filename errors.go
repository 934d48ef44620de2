package xrgrab

import "errors"

var (
	ErrEntityNotFound    = errors.New("entity not found")
	ErrNotSceneNode      = errors.New("entity is not a scene node")
	ErrHierarchyCycle    = errors.New("re-parenting would create a hierarchy cycle")
	ErrUnknownController = errors.New("unknown controller")
	ErrInvalidVox        = errors.New("not a valid VOX file")
	ErrInvalidColor      = errors.New("invalid color")
)
