// Package signature renders hand-drawn signatures and initials and exports
// them as inline PNG data URLs.
package signature

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// ExportScale is the linear scale applied on export.
const ExportScale = 0.5

const dataURLPrefix = "data:image/png;base64,"

// Point is a pen position in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pad is a drawable canvas. Whether it has content is tracked as a side
// effect of drawing, never by inspecting pixels. Pads share no state.
type Pad struct {
	img        *image.RGBA
	penWidth   float64
	ink        color.RGBA
	hasContent bool
}

// NewPad creates an empty transparent pad.
func NewPad(width, height int) *Pad {
	return &Pad{
		img:      image.NewRGBA(image.Rect(0, 0, width, height)),
		penWidth: 2.5,
		ink:      color.RGBA{A: 0xff},
	}
}

// Stroke draws a polyline through points. A single point draws a dot.
func (p *Pad) Stroke(points ...Point) {
	if len(points) == 0 {
		return
	}
	p.hasContent = true
	if len(points) == 1 {
		p.stamp(points[0])
		return
	}
	for i := 1; i < len(points); i++ {
		p.segment(points[i-1], points[i])
	}
}

// HasContent reports whether anything was drawn since the last Clear.
func (p *Pad) HasContent() bool {
	return p.hasContent
}

// Clear resets both the bitmap and the content flag.
func (p *Pad) Clear() {
	for i := range p.img.Pix {
		p.img.Pix[i] = 0
	}
	p.hasContent = false
}

// Export returns the drawing downscaled by ExportScale as a PNG data URL.
// It returns false when nothing has been drawn.
func (p *Pad) Export() (string, bool) {
	if !p.hasContent {
		return "", false
	}
	b := p.img.Bounds()
	w := int(math.Max(1, math.Round(float64(b.Dx())*ExportScale)))
	h := int(math.Max(1, math.Round(float64(b.Dy())*ExportScale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), p.img, b, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return "", false
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), true
}

func (p *Pad) segment(a, b Point) {
	dist := math.Hypot(b.X-a.X, b.Y-a.Y)
	steps := int(math.Ceil(dist * 2))
	if steps == 0 {
		p.stamp(a)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p.stamp(Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
	}
}

func (p *Pad) stamp(c Point) {
	r := p.penWidth / 2
	minX, maxX := int(math.Floor(c.X-r)), int(math.Ceil(c.X+r))
	minY, maxY := int(math.Floor(c.Y-r)), int(math.Ceil(c.Y+r))
	bounds := p.img.Bounds()
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if !(image.Point{X: x, Y: y}).In(bounds) {
				continue
			}
			dx, dy := float64(x)-c.X, float64(y)-c.Y
			if dx*dx+dy*dy <= r*r {
				p.img.SetRGBA(x, y, p.ink)
			}
		}
	}
}

// ParseStrokes decodes strokes sent by clients that capture raw pen
// positions instead of a rendered image: [[{"x":1,"y":2},...],...].
func ParseStrokes(raw string) ([][]Point, error) {
	var strokes [][]Point
	if err := json.Unmarshal([]byte(raw), &strokes); err != nil {
		return nil, fmt.Errorf("decode strokes: %w", err)
	}
	return strokes, nil
}

// Render draws strokes on a fresh pad and exports it.
func Render(width, height int, strokes [][]Point) (string, bool) {
	pad := NewPad(width, height)
	for _, s := range strokes {
		pad.Stroke(s...)
	}
	return pad.Export()
}

// ErrNotPNG is returned for data URLs that are not inline PNG images.
var ErrNotPNG = errors.New("signature must be an inline PNG image")

// DecodeDataURL validates a PNG data URL and returns the decoded image bytes.
func DecodeDataURL(s string) ([]byte, error) {
	if !strings.HasPrefix(s, dataURLPrefix) {
		return nil, ErrNotPNG
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, dataURLPrefix))
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	if _, err := png.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return nil, ErrNotPNG
	}
	return raw, nil
}
