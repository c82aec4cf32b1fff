package align

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// fft2D computes the 2-D discrete Fourier transform of a w-by-h real frame
// held in row-major order: rows first, then columns over the row spectra.
func fft2D(data []float64, w, h int) []complex128 {
	out := make([]complex128, w*h)

	rowFFT := fourier.NewCmplxFFT(w)
	rowIn := make([]complex128, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rowIn[x] = complex(data[y*w+x], 0)
		}
		rowFFT.Coefficients(out[y*w:(y+1)*w], rowIn)
	}

	colFFT := fourier.NewCmplxFFT(h)
	colIn := make([]complex128, h)
	colOut := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			colIn[y] = out[y*w+x]
		}
		colFFT.Coefficients(colOut, colIn)
		for y := 0; y < h; y++ {
			out[y*w+x] = colOut[y]
		}
	}
	return out
}

// ifft2DReal computes the real part of the 2-D inverse transform,
// normalized by the sample count.
func ifft2DReal(coeff []complex128, w, h int) []float64 {
	tmp := make([]complex128, w*h)

	colFFT := fourier.NewCmplxFFT(h)
	colIn := make([]complex128, h)
	colOut := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			colIn[y] = coeff[y*w+x]
		}
		colFFT.Sequence(colOut, colIn)
		for y := 0; y < h; y++ {
			tmp[y*w+x] = colOut[y]
		}
	}

	rowFFT := fourier.NewCmplxFFT(w)
	rowOut := make([]complex128, w)
	out := make([]float64, w*h)
	norm := float64(w * h)
	for y := 0; y < h; y++ {
		rowFFT.Sequence(rowOut, tmp[y*w:(y+1)*w])
		for x := 0; x < w; x++ {
			out[y*w+x] = real(rowOut[x]) / norm
		}
	}
	return out
}
