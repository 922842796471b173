package viewport

import (
	"os"

	"golang.org/x/term"
)

// CellBox is the pixel size of one terminal cell.
type CellBox struct {
	Width  float64
	Height float64
}

// DefaultCellBox matches the common 8x16 bitmap terminal font.
var DefaultCellBox = CellBox{Width: 8, Height: 16}

// FromCells converts a cell grid into pixels.
func FromCells(cols, rows int, box CellBox) Size {
	if box.Width <= 0 || box.Height <= 0 {
		box = DefaultCellBox
	}
	return Size{Width: float64(cols) * box.Width, Height: float64(rows) * box.Height}.Sanitize()
}

// ToCells converts a pixel size back into whole cells.
func ToCells(s Size, box CellBox) (cols, rows int) {
	if box.Width <= 0 || box.Height <= 0 {
		box = DefaultCellBox
	}
	return int(s.Width / box.Width), int(s.Height / box.Height)
}

// TerminalMeasure returns a MeasureFunc for the terminal attached to f. It
// prefers the pixel size reported by the kernel and falls back to the cell
// grid times box. The fraction scales the result to the share of the screen
// the graph container occupies.
func TerminalMeasure(f *os.File, box CellBox, widthFraction float64, reservedRows int) MeasureFunc {
	return func() Size {
		fd := int(f.Fd())
		if !term.IsTerminal(fd) {
			return Default()
		}
		cols, rows, err := term.GetSize(fd)
		if err != nil || cols <= 0 || rows <= 0 {
			return Default()
		}
		return FromCells(int(float64(cols)*widthFraction), rows-reservedRows, cellBox(fd, cols, rows, box))
	}
}

// TerminalCellBox returns the pixel size of one cell of the terminal attached
// to f, or fallback when the kernel does not report pixels.
func TerminalCellBox(f *os.File, fallback CellBox) CellBox {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return fallback
	}
	cols, rows, err := term.GetSize(fd)
	if err != nil || cols <= 0 || rows <= 0 {
		return fallback
	}
	return cellBox(fd, cols, rows, fallback)
}

func cellBox(fd, cols, rows int, fallback CellBox) CellBox {
	px, ok := pixelSize(fd)
	if !ok {
		return fallback
	}
	return CellBox{Width: px.Width / float64(cols), Height: px.Height / float64(rows)}
}
