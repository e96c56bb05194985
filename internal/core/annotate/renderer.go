// Package annotate draws highlights and numbered balloons onto page rasters.
package annotate

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
	"github.com/joseph-ayodele/ballooning/internal/core/tokens"
)

// Balloon geometry in page units.
const (
	balloonRadius = 10.0
	balloonStroke = 1.5
	balloonGap    = 2.0
	pageMargin    = 5.0
	// alpha of the highlight fill
	highlightAlpha = 0x66
)

var errOffPage = errors.New("balloon falls outside the page raster")

// Style holds the colours used for annotations.
type Style struct {
	Highlight string // hex, e.g. "#FFFF00"
	Balloon   string // hex, e.g. "#FF0000"
}

// Outcome reports how one annotation request went. A failed annotation never
// affects the record it belongs to.
type Outcome struct {
	Sequence   int
	Highlights int
	Err        error
}

// Renderer draws annotation requests onto page images.
type Renderer struct {
	highlight color.NRGBA
	balloon   color.NRGBA
	logger    *slog.Logger
}

func NewRenderer(style Style, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if style.Highlight == "" {
		style.Highlight = "#FFFF00"
	}
	if style.Balloon == "" {
		style.Balloon = "#FF0000"
	}
	hl, err := parseColor(style.Highlight, highlightAlpha)
	if err != nil {
		return nil, fmt.Errorf("highlight colour: %w", err)
	}
	bl, err := parseColor(style.Balloon, 0xff)
	if err != nil {
		return nil, fmt.Errorf("balloon colour: %w", err)
	}
	return &Renderer{highlight: hl, balloon: bl, logger: logger}, nil
}

func parseColor(hex string, alpha uint8) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// RenderPage draws reqs onto a copy of base. scale converts page units to
// raster pixels. Every token of the page containing a request's text is
// highlighted, then the balloon is drawn above the anchor.
func (r *Renderer) RenderPage(base image.Image, page tokens.Page, scale float64, reqs []dimension.AnnotationRequest) (*image.NRGBA, []Outcome) {
	dst := imaging.Clone(base)
	outcomes := make([]Outcome, 0, len(reqs))

	for _, req := range reqs {
		o := Outcome{Sequence: req.Sequence}
		if strings.TrimSpace(req.Text) == "" {
			o.Err = errors.New("empty highlight text")
			outcomes = append(outcomes, o)
			continue
		}

		for _, t := range page.Tokens {
			if strings.Contains(t.Text, req.Text) {
				r.fill(dst, pixelRect(t.Rect, scale))
				o.Highlights++
			}
		}

		cx, cy := BalloonCenter(req.Text, req.X, req.Y)
		o.Err = r.drawBalloon(dst, cx*scale, cy*scale, balloonRadius*scale, balloonStroke*scale, req.Sequence)
		if o.Err != nil {
			r.logger.Warn("annotate.balloon.failed", "page", page.Index+1, "sequence", req.Sequence, "error", o.Err)
		}
		outcomes = append(outcomes, o)
	}
	return dst, outcomes
}

// BalloonCenter places a balloon above a callout anchored at (x, y), kept
// at least pageMargin from the top-left page edges.
func BalloonCenter(text string, x, y float64) (float64, float64) {
	cx := x + float64(utf8.RuneCountInString(text))/2 - balloonRadius
	cy := y - balloonRadius - balloonGap
	return math.Max(cx, pageMargin), math.Max(cy, pageMargin)
}

func pixelRect(r tokens.Rect, scale float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X0*scale)), int(math.Floor(r.Y0*scale)),
		int(math.Ceil(r.X1*scale)), int(math.Ceil(r.Y1*scale)),
	)
}

func (r *Renderer) fill(dst *image.NRGBA, rect image.Rectangle) {
	draw.Draw(dst, rect.Intersect(dst.Bounds()), image.NewUniform(r.highlight), image.Point{}, draw.Over)
}

// drawBalloon draws a white disc with a coloured ring and the sequence number centred in it.
func (r *Renderer) drawBalloon(dst *image.NRGBA, cx, cy, radius, stroke float64, n int) error {
	outer := radius + stroke/2
	box := image.Rect(
		int(math.Floor(cx-outer)), int(math.Floor(cy-outer)),
		int(math.Ceil(cx+outer))+1, int(math.Ceil(cy+outer))+1,
	)
	b := dst.Bounds()
	if !box.Overlaps(b) {
		return errOffPage
	}
	box = box.Intersect(b)

	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	for py := box.Min.Y; py < box.Max.Y; py++ {
		for px := box.Min.X; px < box.Max.X; px++ {
			d := math.Hypot(float64(px)+0.5-cx, float64(py)+0.5-cy)
			switch {
			case math.Abs(d-radius) <= stroke/2:
				dst.SetNRGBA(px, py, r.balloon)
			case d < radius:
				dst.SetNRGBA(px, py, white)
			}
		}
	}

	label := strconv.Itoa(n)
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(r.balloon), Face: face}
	w := d.MeasureString(label)
	m := face.Metrics()
	d.Dot = fixed.Point26_6{
		X: fixed.Int26_6(cx*64) - w/2,
		Y: fixed.Int26_6(cy*64) + (m.Ascent-m.Descent)/2,
	}
	d.DrawString(label)
	return nil
}
