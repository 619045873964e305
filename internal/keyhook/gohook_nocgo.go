//go:build !cgo

package keyhook

import (
	"context"

	"github.com/keysender/keysender/pkg/logger"
)

// GoHook is unavailable without cgo.
type GoHook struct{}

func NewGoHook(log logger.Logger) *GoHook {
	return &GoHook{}
}

// Start always fails with ErrUnsupported.
func (g *GoHook) Start(ctx context.Context) (<-chan int32, error) {
	return nil, ErrUnsupported
}

var _ Source = (*GoHook)(nil)
