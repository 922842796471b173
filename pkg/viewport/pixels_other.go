//go:build !unix

package viewport

func pixelSize(int) (Size, bool) {
	return Size{}, false
}
