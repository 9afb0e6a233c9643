// SPDX-License-Identifier: MIT
package spectrogram

import "image/color"

// Ramp is a 256-entry color lookup table mapping quantized magnitude to
// a pixel color. The ramp is strictly non-decreasing in total intensity
// so higher magnitude never renders darker.
type Ramp struct {
	lut [256]color.RGBA
}

// rampStop anchors the gradient at a magnitude value.
type rampStop struct {
	at uint8
	c  color.RGBA
}

// heatStops is the default near-black -> purple -> orange -> white ramp.
var heatStops = []rampStop{
	{0, color.RGBA{0, 0, 0, 255}},
	{64, color.RGBA{64, 0, 96, 255}},
	{128, color.RGBA{160, 32, 64, 255}},
	{192, color.RGBA{240, 128, 32, 255}},
	{255, color.RGBA{255, 255, 240, 255}},
}

// NewHeatRamp builds the default heat ramp by linear interpolation
// between the gradient stops.
func NewHeatRamp() *Ramp {
	return newRamp(heatStops)
}

// NewGrayRamp builds a plain black-to-white ramp, useful for exports
// meant for machine consumption.
func NewGrayRamp() *Ramp {
	return newRamp([]rampStop{
		{0, color.RGBA{0, 0, 0, 255}},
		{255, color.RGBA{255, 255, 255, 255}},
	})
}

func newRamp(stops []rampStop) *Ramp {
	r := &Ramp{}
	for i := 0; i+1 < len(stops); i++ {
		lo, hi := stops[i], stops[i+1]
		span := int(hi.at) - int(lo.at)
		for v := int(lo.at); v <= int(hi.at); v++ {
			t := 0.0
			if span > 0 {
				t = float64(v-int(lo.at)) / float64(span)
			}
			r.lut[v] = color.RGBA{
				R: lerp(lo.c.R, hi.c.R, t),
				G: lerp(lo.c.G, hi.c.G, t),
				B: lerp(lo.c.B, hi.c.B, t),
				A: 255,
			}
		}
	}
	return r
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

// At returns the color for a quantized magnitude value.
func (r *Ramp) At(v uint8) color.RGBA {
	return r.lut[v]
}

// MapColumn maps one spectral snapshot to a column of pixels, top row
// first. The frequency axis is inverted: bin 0 (DC) lands on the bottom
// row so low frequencies render at the bottom of the image. dst must
// have the same length as snapshot. Pure function of its inputs.
func MapColumn(snapshot []uint8, ramp *Ramp, dst []color.RGBA) {
	n := len(snapshot)
	for row := 0; row < n; row++ {
		dst[row] = ramp.At(snapshot[n-1-row])
	}
}
