package polylabel

import "errors"

var (
	ErrInvalidGeometry  = errors.New("invalid geometry")
	ErrInvalidPrecision = errors.New("invalid precision")
)
