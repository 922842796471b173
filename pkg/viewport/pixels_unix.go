//go:build unix

package viewport

import "golang.org/x/sys/unix"

// pixelSize asks the kernel for the terminal's pixel dimensions. Many
// terminals report zero here; callers must treat that as unknown.
func pixelSize(fd int) (Size, bool) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil || ws.Xpixel == 0 || ws.Ypixel == 0 {
		return Size{}, false
	}
	return Size{Width: float64(ws.Xpixel), Height: float64(ws.Ypixel)}, true
}
