//go:build !windows

package hotkey

import (
	"fmt"

	"go.uber.org/zap"
)

// Listener is not supported on non-Windows builds.
type Listener struct{}

func Listen(combos map[int]Combo, handler func(Event), logger *zap.Logger) (*Listener, error) {
	return nil, fmt.Errorf("global hotkeys not supported on this platform")
}

func (l *Listener) Stop() {}
