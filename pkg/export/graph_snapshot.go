package export

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vanderheijden86/kgview/pkg/analysis"
	"github.com/vanderheijden86/kgview/pkg/camera"
	"github.com/vanderheijden86/kgview/pkg/debug"
	"github.com/vanderheijden86/kgview/pkg/layout"
	"github.com/vanderheijden86/kgview/pkg/metrics"
	"github.com/vanderheijden86/kgview/pkg/model"
	"github.com/vanderheijden86/kgview/pkg/paint"
	"github.com/vanderheijden86/kgview/pkg/viewport"

	"golang.org/x/image/font/basicfont"
)

// Snapshot image defaults.
const (
	DefaultSnapshotWidth  = 1280
	DefaultSnapshotHeight = 800
	headerHeight          = 64.0
)

var (
	colorHeaderBG = color.RGBA{R: 15, G: 23, B: 42, A: 230}
	colorTitle    = color.RGBA{R: 226, G: 232, B: 240, A: 255}
	colorSubtle   = color.RGBA{R: 148, G: 163, B: 184, A: 255}
)

// GraphSnapshotOptions controls graph snapshot export behaviour.
type GraphSnapshotOptions struct {
	Path   string      // Output path; format inferred from extension when Format empty
	Format string      // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title  string      // Optional title rendered in the summary block
	Width  int         // Image width in pixels; 0 selects DefaultSnapshotWidth
	Height int         // Image height in pixels; 0 selects DefaultSnapshotHeight
	Graph  model.Graph // Graph to render; normalized before layout
	Layout layout.Config
	Camera camera.Config
	// NoSummary omits the header block so the image is the bare graph view.
	NoSummary bool
}

// summaryInfo is the provenance block drawn above the graph.
type summaryInfo struct {
	Title     string
	DataHash  string
	NodeCount int
	EdgeCount int
	TopHub    string
	Bridge    string
	Parts     int
	Dropped   int
}

// SaveGraphSnapshot settles the layout headlessly, fits the camera the way the
// interactive view does, and writes the result as SVG or PNG.
func SaveGraphSnapshot(opts GraphSnapshotOptions) error {
	defer metrics.Timer(metrics.SnapshotExport)()

	if opts.Graph.Empty() {
		return fmt.Errorf("no nodes to export")
	}
	format, path, err := resolveFormat(opts.Format, opts.Path)
	if err != nil {
		return err
	}
	opts.Path = path

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	file, err := os.Create(opts.Path)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.Path, err)
	}
	w := bufio.NewWriter(file)
	if err := RenderSnapshot(w, format, opts); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", opts.Path, err)
	}
	return file.Close()
}

// RenderSnapshot writes the snapshot image in format ("svg" or "png") to w.
func RenderSnapshot(w io.Writer, format string, opts GraphSnapshotOptions) error {
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = DefaultSnapshotWidth
	}
	if height <= 0 {
		height = DefaultSnapshotHeight
	}
	if opts.Layout == (layout.Config{}) {
		opts.Layout = layout.DefaultConfig()
	}
	if opts.Camera == (camera.Config{}) {
		opts.Camera = camera.DefaultConfig()
	}

	frame, summary := settle(opts, float64(width), float64(height))
	painter := paint.NewPainter()

	switch strings.ToLower(format) {
	case "svg":
		s := paint.NewSVGSurface(w, width, height)
		skipped := painter.Render(s, frame)
		if !opts.NoSummary {
			drawSummaryBlock(s, summary, float64(width))
		}
		s.End()
		logSkipped(skipped)
		return nil

	case "png":
		s := paint.NewGGSurface(width, height)
		skipped := painter.Render(s, frame)
		if !opts.NoSummary {
			drawSummaryBlock(s, summary, float64(width))
		}
		logSkipped(skipped)
		if err := s.EncodePNG(w); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// settle runs the force layout to rest and frames it with a camera fit around
// the same centre target the dashboard uses.
func settle(opts GraphSnapshotOptions, width, height float64) (paint.Frame, summaryInfo) {
	g, rep := opts.Graph.Normalize()

	eng := layout.New(opts.Layout)
	eng.Seed(g)
	ticks := eng.Run()
	nodes := eng.Positions()
	debug.Log("export: layout settled after %d ticks (%d nodes)", ticks, len(nodes))

	size := viewport.Size{Width: width, Height: height}
	centre := camera.CenterTarget(size, opts.Camera.VerticalShiftRatio)
	k, ok := camera.FitZoom(nodes, size, centre, opts.Camera)
	if !ok {
		k = 1
	}

	frame := paint.Frame{
		Nodes: nodes,
		Links: eng.Links(),
		View:  paint.View{Width: width, Height: height, CenterX: centre.X, CenterY: centre.Y, K: k},
	}
	stats := analysis.NewAnalyzer(g).Analyze()
	summary := summaryInfo{
		Title:     opts.Title,
		DataHash:  GraphHash(g),
		NodeCount: len(g.Nodes),
		EdgeCount: len(g.Links),
		TopHub:    firstOr(stats.Hubs(1), "n/a"),
		Bridge:    firstOr(stats.Bridges(1), ""),
		Parts:     stats.Components,
		Dropped:   rep.DanglingLinks + rep.DroppedNodes,
	}
	if summary.Title == "" {
		summary.Title = "Knowledge graph"
	}
	return frame, summary
}

func logSkipped(n int) {
	if n > 0 {
		debug.Warn("export: skipped %d unpaintable elements", n)
	}
}

// drawSummaryBlock paints the header in screen space on top of the graph.
func drawSummaryBlock(s paint.Surface, info summaryInfo, width float64) {
	s.SetTransform(1, 0, 0)
	s.SetColor(colorHeaderBG)
	s.DrawRectangle(16, 16, width-32, headerHeight-16)
	s.Fill()

	s.SetFontFace(basicfont.Face7x13)
	s.SetColor(colorTitle)
	s.DrawStringAnchored(info.Title, 32, 34, 0, 0.5)
	s.SetColor(colorSubtle)
	line := fmt.Sprintf("nodes: %d  links: %d  components: %d  top hub: %s",
		info.NodeCount, info.EdgeCount, info.Parts, info.TopHub)
	if info.Bridge != "" && info.Bridge != info.TopHub {
		line += "  bridge: " + info.Bridge
	}
	line += "  data_hash: " + info.DataHash
	if info.Dropped > 0 {
		line += fmt.Sprintf("  dropped: %d", info.Dropped)
	}
	s.DrawStringAnchored(line, 32, 54, 0, 0.5)
}

// resolveFormat normalises the requested format against the output path.
func resolveFormat(format, path string) (string, string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "png"
			if path != "" && filepath.Ext(path) == "" {
				path += ".png"
			}
		}
	}
	if format != "svg" && format != "png" {
		return "", "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if path == "" {
		return "", "", fmt.Errorf("output path is required")
	}
	return format, path, nil
}

// GraphHash is a short, order-independent fingerprint of a graph's ids and
// links, printed on snapshots for provenance.
func GraphHash(g model.Graph) string {
	ids := make([]string, 0, len(g.Nodes)+len(g.Links))
	for _, n := range g.Nodes {
		ids = append(ids, "n:"+n.ID)
	}
	for _, l := range g.Links {
		ids = append(ids, "l:"+l.Source+"\x00"+l.Target)
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

func firstOr(ids []string, fallback string) string {
	if len(ids) == 0 {
		return fallback
	}
	return truncate(ids[0], 32)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
