//go:build windows

package hotkey

import (
	"fmt"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"go.uber.org/zap"
)

// Listener installs a low-level keyboard hook and reports combo edges.
// A message-only hook thread is pinned with LockOSThread; the detector
// lives on that thread and handler calls are serialized through a
// dispatch goroutine so press and release keep their order.
type Listener struct {
	threadID uint32
	events   chan Event
	done     chan struct{}
}

// Listen installs the hook for combos and starts dispatching edges to
// handler. It returns once the hook is installed or fails.
func Listen(combos map[int]Combo, handler func(Event), logger *zap.Logger) (*Listener, error) {
	l := &Listener{
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	errCh := make(chan error, 1)

	go func() {
		for ev := range l.events {
			handler(ev)
		}
	}()

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(l.events)
		defer close(l.done)

		user32 := syscall.NewLazyDLL("user32.dll")
		kernel32 := syscall.NewLazyDLL("kernel32.dll")
		procSetWindowsHookExW := user32.NewProc("SetWindowsHookExW")
		procUnhookWindowsHookEx := user32.NewProc("UnhookWindowsHookEx")
		procCallNextHookEx := user32.NewProc("CallNextHookEx")
		procGetMessageW := user32.NewProc("GetMessageW")
		procGetCurrentThreadId := kernel32.NewProc("GetCurrentThreadId")

		const (
			whKeyboardLL  = 13
			wmKeydown     = 0x0100
			wmKeyup       = 0x0101
			wmSyskeydown  = 0x0104
			wmSyskeyup    = 0x0105
			llkhfInjected = 0x10
		)

		type kbdllhookstruct struct {
			vkCode      uint32
			scanCode    uint32
			flags       uint32
			time        uint32
			dwExtraInfo uintptr
		}

		tid, _, _ := procGetCurrentThreadId.Call()
		l.threadID = uint32(tid)

		det := NewDetector(combos)
		swallowed := make(map[uint32]bool)

		callback := syscall.NewCallback(func(nCode, wParam, lParam uintptr) uintptr {
			if int32(nCode) < 0 {
				ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
				return ret
			}

			msg := uint32(wParam)
			k := (*kbdllhookstruct)(unsafe.Pointer(lParam))
			vk := k.vkCode

			if (k.flags & llkhfInjected) != 0 {
				ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
				return ret
			}

			pressed := msg == wmKeydown || msg == wmSyskeydown
			released := msg == wmKeyup || msg == wmSyskeyup
			if !pressed && !released {
				ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
				return ret
			}

			for _, ev := range det.Update(vk, pressed) {
				logger.Debug("hotkey edge", zap.Int("id", ev.ID), zap.Bool("pressed", ev.Pressed))
				select {
				case l.events <- ev:
				default:
					logger.Warn("hotkey event dropped, dispatch queue full", zap.Int("id", ev.ID))
				}
			}

			if pressed && det.ShouldSwallow(vk) {
				swallowed[vk] = true
				return uintptr(1)
			}
			if released && swallowed[vk] {
				delete(swallowed, vk)
				return uintptr(1)
			}

			ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
			return ret
		})

		hook, _, _ := procSetWindowsHookExW.Call(
			uintptr(whKeyboardLL),
			callback,
			0,
			0,
		)
		if hook == 0 {
			errCh <- fmt.Errorf("SetWindowsHookExW failed")
			return
		}
		logger.Debug("low-level keyboard hook installed")
		errCh <- nil

		var msg struct {
			Hwnd    uintptr
			Message uint32
			WParam  uintptr
			LParam  uintptr
			Time    uint32
			Pt_x    int32
			Pt_y    int32
		}
		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
			if int32(ret) == -1 || ret == 0 {
				break
			}
		}

		procUnhookWindowsHookEx.Call(hook)
		logger.Debug("low-level keyboard hook uninstalled")
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return nil, err
		}
		return l, nil
	case <-time.After(2 * time.Second):
		return nil, fmt.Errorf("timeout installing keyboard hook")
	}
}

// Stop posts WM_QUIT to the hook thread and waits for it to unwind.
func (l *Listener) Stop() {
	const wmQuit = 0x0012
	user32 := syscall.NewLazyDLL("user32.dll")
	procPostThreadMessageW := user32.NewProc("PostThreadMessageW")
	procPostThreadMessageW.Call(uintptr(l.threadID), uintptr(wmQuit), 0, 0)
	select {
	case <-l.done:
	case <-time.After(3 * time.Second):
	}
}
