//go:build windows

package clipboard

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

const (
	// settleDelay gives the clipboard owner time to commit before the
	// paste keystroke fires.
	settleDelay = 80 * time.Millisecond

	// pasteDelay lets the focused application read the clipboard
	// before the original content is restored.
	pasteDelay = 120 * time.Millisecond
)

// PasteText places text on the clipboard, sends Ctrl+V to the focused
// window, then restores the previous clipboard content.
func PasteText(text string) error {
	orig, _ := clipboard.ReadAll()
	_ = clipboard.WriteAll(text)
	time.Sleep(settleDelay)

	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.HasCTRL(true)
	kb.SetKeys(keybd_event.VK_V)
	if err := kb.Launching(); err != nil {
		return err
	}
	time.Sleep(pasteDelay)
	_ = clipboard.WriteAll(orig)
	return nil
}
