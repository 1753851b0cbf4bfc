package types

import (
	"context"
)

// Closer is implemented by everything holding hardware resources.
type Closer interface {
	Close(context.Context) error
}
