package driver

import (
	"fmt"
)

type PictureType uint32

const (
	PictureTypeUnknown = PictureType(iota)
	PictureTypeIDR
	PictureTypeI
	PictureTypeP
	PictureTypeB
)

func (t PictureType) String() string {
	switch t {
	case PictureTypeUnknown:
		return "unknown"
	case PictureTypeIDR:
		return "IDR"
	case PictureTypeI:
		return "I"
	case PictureTypeP:
		return "P"
	case PictureTypeB:
		return "B"
	}
	return fmt.Sprintf("unknown_%d", uint32(t))
}

// IsKey reports whether a decoder may start from a picture of this type.
func (t PictureType) IsKey() bool {
	return t == PictureTypeIDR
}
