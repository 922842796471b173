package paint

import (
	"math"
	"sync"

	"github.com/vanderheijden86/kgview/pkg/debug"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// GoFaces serves Go Regular faces, caching one per rounded quarter-pixel size.
// When the embedded font fails to parse it falls back to basicfont.
type GoFaces struct {
	mu    sync.Mutex
	font  *opentype.Font
	err   error
	once  sync.Once
	cache map[int]font.Face
}

var (
	defaultFaces     *GoFaces
	defaultFacesOnce sync.Once
)

// DefaultFaces returns the process-wide face cache.
func DefaultFaces() *GoFaces {
	defaultFacesOnce.Do(func() {
		defaultFaces = &GoFaces{cache: make(map[int]font.Face)}
	})
	return defaultFaces
}

// Face returns a face of the given pixel size. Sizes are clamped to
// [1, 512] so extreme zoom levels do not allocate huge glyph caches.
func (g *GoFaces) Face(size float64) font.Face {
	g.once.Do(func() {
		g.font, g.err = opentype.Parse(goregular.TTF)
		if g.err != nil {
			debug.Warn("paint: parse go regular: %v", g.err)
		}
	})
	if g.err != nil {
		return basicfont.Face7x13
	}

	if math.IsNaN(size) || size < 1 {
		size = 1
	}
	size = math.Min(size, 512)
	key := int(math.Round(size * 4))

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cache == nil {
		g.cache = make(map[int]font.Face)
	}
	if f, ok := g.cache[key]; ok {
		return f
	}
	f, err := opentype.NewFace(g.font, &opentype.FaceOptions{
		Size:    float64(key) / 4,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		debug.Warn("paint: face %.2f: %v", size, err)
		return basicfont.Face7x13
	}
	g.cache[key] = f
	return f
}
