// Package chart renders skill mastery totals as PNG bar charts.
package chart

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/pavelanni/grader/internal/model"
)

// Default canvas size, matching a 10x4 inch figure at 100 dpi.
const (
	Width  = 1000
	Height = 400
)

// Bar colours per domain.
const (
	ReadingColor = "#87CEEB"
	WritingColor = "#FA8072"
)

const (
	marginLeft   = 80.0
	marginRight  = 30.0
	marginTop    = 50.0
	marginBottom = 130.0
	yTicks       = 5
	yAxisLabel   = "Total Marks"
)

// Options controls a single chart.
type Options struct {
	Title  string
	Color  string
	Width  int
	Height int
}

// ColorFor returns the bar colour used for a domain.
func ColorFor(d model.Domain) string {
	if d == model.DomainWriting {
		return WritingColor
	}
	return ReadingColor
}

// Mastery renders the mastery chart for one domain.
func Mastery(w io.Writer, d model.Domain, totals model.MasteryTotals) error {
	return Render(w, totals.Bars(d), Options{
		Title: string(d) + " Skill Mastery",
		Color: ColorFor(d),
	})
}

// MasteryPNG is Mastery into a buffer.
func MasteryPNG(d model.Domain, totals model.MasteryTotals) ([]byte, error) {
	var buf bytes.Buffer
	if err := Mastery(&buf, d, totals); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render draws a bar chart with one bar per entry, x labels rotated 45
// degrees and a "Total Marks" y axis, and encodes it as PNG.
func Render(w io.Writer, bars []model.Bar, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = Width
	}
	if opts.Height <= 0 {
		opts.Height = Height
	}
	if opts.Color == "" {
		opts.Color = ReadingColor
	}

	width, height := float64(opts.Width), float64(opts.Height)
	plotW := width - marginLeft - marginRight
	plotH := height - marginTop - marginBottom
	if plotW <= 0 || plotH <= 0 {
		return fmt.Errorf("canvas %dx%d too small", opts.Width, opts.Height)
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	top := axisMax(bars)
	originX, originY := marginLeft, marginTop+plotH

	// Gridlines and tick labels.
	dc.SetLineWidth(1)
	for i := 0; i <= yTicks; i++ {
		v := top * i / yTicks
		y := originY - plotH*float64(v)/float64(top)
		dc.SetHexColor("#DDDDDD")
		dc.DrawLine(originX, y, originX+plotW, y)
		dc.Stroke()
		dc.SetRGB(0.2, 0.2, 0.2)
		dc.DrawStringAnchored(strconv.Itoa(v), originX-8, y, 1, 0.5)
	}

	// Bars and rotated category labels.
	if n := len(bars); n > 0 {
		slot := plotW / float64(n)
		barW := slot * 0.8
		for i, b := range bars {
			x := originX + slot*float64(i) + (slot-barW)/2
			h := plotH * float64(b.Total) / float64(top)
			dc.SetHexColor(opts.Color)
			dc.DrawRectangle(x, originY-h, barW, h)
			dc.Fill()

			cx := x + barW/2
			dc.SetRGB(0.2, 0.2, 0.2)
			dc.Push()
			dc.RotateAbout(gg.Radians(-45), cx, originY+10)
			dc.DrawStringAnchored(string(b.Skill), cx, originY+10, 1, 0.5)
			dc.Pop()
		}
	}

	// Axes.
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1.5)
	dc.DrawLine(originX, marginTop, originX, originY)
	dc.DrawLine(originX, originY, originX+plotW, originY)
	dc.Stroke()

	dc.Push()
	dc.RotateAbout(gg.Radians(-90), 20, marginTop+plotH/2)
	dc.DrawStringAnchored(yAxisLabel, 20, marginTop+plotH/2, 0.5, 0.5)
	dc.Pop()

	if opts.Title != "" {
		dc.DrawStringAnchored(opts.Title, width/2, marginTop/2, 0.5, 0.5)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// axisMax rounds the largest total up to a multiple of yTicks so tick labels
// are whole numbers. An all-zero chart still gets a unit axis.
func axisMax(bars []model.Bar) int {
	top := 0
	for _, b := range bars {
		if b.Total > top {
			top = b.Total
		}
	}
	if top == 0 {
		return yTicks
	}
	return int(math.Ceil(float64(top)/yTicks)) * yTicks
}
