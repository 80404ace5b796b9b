//go:build !windows

package wininput

import (
	"fmt"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

type Backend struct{}

func NewBackend(logger autoclicker.Logger) (*Backend, error) {
	return nil, fmt.Errorf("windows input backend is only available on Windows")
}

func (b *Backend) Injector() autoclicker.Injector {
	return nil
}

func (b *Backend) NewListener(binding autoclicker.Binding) (autoclicker.Listener, error) {
	return nil, fmt.Errorf("windows input backend is only available on Windows")
}
