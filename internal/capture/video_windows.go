//go:build windows

package capture

import (
	"fmt"
	"syscall"
	"unsafe"
)

var (
	modUser32 = syscall.NewLazyDLL("user32.dll")
	modGdi32  = syscall.NewLazyDLL("gdi32.dll")

	procGetDC              = modUser32.NewProc("GetDC")
	procReleaseDC          = modUser32.NewProc("ReleaseDC")
	procCreateCompatibleDC = modGdi32.NewProc("CreateCompatibleDC")
	procCreateDIBSection   = modGdi32.NewProc("CreateDIBSection")
	procSelectObject       = modGdi32.NewProc("SelectObject")
	procBitBlt             = modGdi32.NewProc("BitBlt")
	procDeleteDC           = modGdi32.NewProc("DeleteDC")
	procDeleteObject       = modGdi32.NewProc("DeleteObject")
)

const srccopy = 0x00CC0020

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

// gdiGrabber copies a screen region through a 32-bit DIB section and
// repacks it into 24-bit BGR frames.
type gdiGrabber struct {
	region Region

	screenDC uintptr
	memDC    uintptr
	bitmap   uintptr
	oldObj   uintptr
	bits     unsafe.Pointer

	frame []byte
}

// NewScreenSource captures a fixed region of the virtual screen.
func NewScreenSource(region Region) (VideoSource, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	return &gdiGrabber{region: region}, nil
}

func (g *gdiGrabber) Start() error {
	g.screenDC, _, _ = procGetDC.Call(0)
	if g.screenDC == 0 {
		return fmt.Errorf("GetDC failed")
	}
	g.memDC, _, _ = procCreateCompatibleDC.Call(g.screenDC)
	if g.memDC == 0 {
		g.release()
		return fmt.Errorf("CreateCompatibleDC failed")
	}

	// Negative height requests a top-down DIB so rows come out in
	// frame order.
	info := bitmapInfo{Header: bitmapInfoHeader{
		Width:    int32(g.region.Width),
		Height:   -int32(g.region.Height),
		Planes:   1,
		BitCount: 32,
	}}
	info.Header.Size = uint32(unsafe.Sizeof(info.Header))

	g.bitmap, _, _ = procCreateDIBSection.Call(
		g.memDC,
		uintptr(unsafe.Pointer(&info)),
		0,
		uintptr(unsafe.Pointer(&g.bits)),
		0,
		0,
	)
	if g.bitmap == 0 || g.bits == nil {
		g.release()
		return fmt.Errorf("CreateDIBSection failed")
	}
	g.oldObj, _, _ = procSelectObject.Call(g.memDC, g.bitmap)

	g.frame = make([]byte, g.region.Width*g.region.Height*3)
	return nil
}

func (g *gdiGrabber) Grab() (Frame, error) {
	ret, _, _ := procBitBlt.Call(
		g.memDC,
		0, 0,
		uintptr(g.region.Width), uintptr(g.region.Height),
		g.screenDC,
		uintptr(g.region.Left), uintptr(g.region.Top),
		srccopy,
	)
	if ret == 0 {
		return Frame{}, fmt.Errorf("BitBlt failed")
	}

	n := g.region.Width * g.region.Height
	src := unsafe.Slice((*byte)(g.bits), n*4)
	for i := 0; i < n; i++ {
		g.frame[i*3+0] = src[i*4+0]
		g.frame[i*3+1] = src[i*4+1]
		g.frame[i*3+2] = src[i*4+2]
	}

	out := make([]byte, len(g.frame))
	copy(out, g.frame)
	return Frame{Data: out, Width: g.region.Width, Height: g.region.Height}, nil
}

func (g *gdiGrabber) Stop() error {
	g.release()
	return nil
}

func (g *gdiGrabber) release() {
	if g.oldObj != 0 {
		procSelectObject.Call(g.memDC, g.oldObj)
		g.oldObj = 0
	}
	if g.bitmap != 0 {
		procDeleteObject.Call(g.bitmap)
		g.bitmap = 0
	}
	if g.memDC != 0 {
		procDeleteDC.Call(g.memDC)
		g.memDC = 0
	}
	if g.screenDC != 0 {
		procReleaseDC.Call(0, g.screenDC)
		g.screenDC = 0
	}
	g.bits = nil
}
