package peakchar

import (
	"math"

	"peakstack/internal/models"
	"peakstack/pkg/peakfind"
)

// peakAttribs are the measured shape characteristics of one peak.
type peakAttribs struct {
	height       float64
	orientation  float64
	eccentricity float64
}

// measurePeak computes height, orientation and eccentricity of a peak from
// the intensity distribution inside the peakWidth-sided window around it.
//
// Height is the peak sample minus the window minimum. Orientation and
// eccentricity come from the second central moments of the
// background-subtracted intensity: orientation is the angle of the major
// axis, eccentricity is sqrt(1 - l2/l1) for covariance eigenvalues
// l1 >= l2. A single-pixel peak has zero spread in both.
func measurePeak(frame *models.Frame, pk peakfind.Peak, peakWidth int) peakAttribs {
	if peakWidth < 3 {
		peakWidth = 3
	}
	half := peakWidth / 2
	cx := int(math.Round(pk.X))
	cy := int(math.Round(pk.Y))
	x0, x1 := clamp(cx-half, 0, frame.W-1), clamp(cx+half, 0, frame.W-1)
	y0, y1 := clamp(cy-half, 0, frame.H-1), clamp(cy+half, 0, frame.H-1)

	background := math.Inf(1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if v := frame.Pix[y*frame.W+x]; v < background {
				background = v
			}
		}
	}

	// Intensity moments about the centroid of the window.
	var m00, mx, my float64
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			w := frame.Pix[y*frame.W+x] - background
			m00 += w
			mx += w * float64(x)
			my += w * float64(y)
		}
	}

	attrs := peakAttribs{height: frame.At(cx, cy) - background}
	if m00 <= 0 {
		return attrs
	}
	mx /= m00
	my /= m00

	var mu20, mu02, mu11 float64
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			w := frame.Pix[y*frame.W+x] - background
			dx := float64(x) - mx
			dy := float64(y) - my
			mu20 += w * dx * dx
			mu02 += w * dy * dy
			mu11 += w * dx * dy
		}
	}
	mu20 /= m00
	mu02 /= m00
	mu11 /= m00

	attrs.orientation = 0.5 * math.Atan2(2*mu11, mu20-mu02)

	// Eigenvalues of the intensity covariance.
	common := math.Sqrt((mu20-mu02)*(mu20-mu02) + 4*mu11*mu11)
	l1 := (mu20 + mu02 + common) / 2
	l2 := (mu20 + mu02 - common) / 2
	if l1 > 0 {
		ratio := l2 / l1
		if ratio < 0 {
			ratio = 0
		}
		attrs.eccentricity = math.Sqrt(1 - ratio)
	}
	return attrs
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
