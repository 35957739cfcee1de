package models

import (
	"fmt"
)

// MaxBitDepth is the deepest sample size an Image can hold.
const MaxBitDepth = 16

// Image represents a raster of integer intensity samples with one or more bands
type Image struct {
	// Pix holds the samples in row-major, band-interleaved order:
	// index = (y*Width + x)*Bands + band
	Pix []uint16

	// Width is the number of columns
	Width int

	// Height is the number of rows
	Height int

	// Bands is the number of samples per pixel
	Bands int

	// BitDepth is the number of significant bits per sample.
	// Samples lie in [0, 2^BitDepth - 1].
	BitDepth int
}

// NewImage allocates a zeroed image of the given shape
func NewImage(height, width, bands, bitDepth int) (*Image, error) {
	if height < 0 || width < 0 {
		return nil, NewDataError("image dimensions must be non-negative, got %dx%d", width, height)
	}
	if bands < 1 {
		return nil, NewDataError("image must have at least one band, got %d", bands)
	}
	if bitDepth < 1 || bitDepth > MaxBitDepth {
		return nil, &ConfigError{Param: "bitDepth", Value: bitDepth, Reason: fmt.Sprintf("must be in [1, %d]", MaxBitDepth)}
	}

	return &Image{
		Pix:      make([]uint16, height*width*bands),
		Width:    width,
		Height:   height,
		Bands:    bands,
		BitDepth: bitDepth,
	}, nil
}

// MaxValue returns the largest sample value representable at the image's bit depth
func (img *Image) MaxValue() uint16 {
	return uint16(1<<uint(img.BitDepth) - 1)
}

// Pixels returns the number of pixels (Height*Width)
func (img *Image) Pixels() int {
	return img.Width * img.Height
}

func (img *Image) offset(y, x, band int) int {
	return (y*img.Width+x)*img.Bands + band
}

// At returns the sample at row y, column x and the given band
func (img *Image) At(y, x, band int) uint16 {
	return img.Pix[img.offset(y, x, band)]
}

// Set stores a sample at row y, column x and the given band
func (img *Image) Set(y, x, band int, v uint16) {
	img.Pix[img.offset(y, x, band)] = v
}

// Pixel returns the band samples of a pixel as a sub-slice of Pix
func (img *Image) Pixel(y, x int) []uint16 {
	i := img.offset(y, x, 0)
	return img.Pix[i : i+img.Bands]
}

// Clone returns a deep copy of the image
func (img *Image) Clone() *Image {
	out := *img
	out.Pix = make([]uint16, len(img.Pix))
	copy(out.Pix, img.Pix)
	return &out
}

// Validate checks the shape invariants and that no sample exceeds the bit depth
func (img *Image) Validate() error {
	if img == nil {
		return NewDataError("image is nil")
	}
	if img.Bands < 1 {
		return NewDataError("image must have at least one band, got %d", img.Bands)
	}
	if img.BitDepth < 1 || img.BitDepth > MaxBitDepth {
		return &ConfigError{Param: "bitDepth", Value: img.BitDepth, Reason: fmt.Sprintf("must be in [1, %d]", MaxBitDepth)}
	}
	if img.Pixels() < 1 {
		return NewDataError("image has no pixels (%dx%d)", img.Width, img.Height)
	}
	if len(img.Pix) != img.Pixels()*img.Bands {
		return NewDataError("pixel buffer has %d samples, expected %d", len(img.Pix), img.Pixels()*img.Bands)
	}

	maxValue := img.MaxValue()
	for i, v := range img.Pix {
		if v > maxValue {
			return NewDataError("sample %d has value %d above %d-bit maximum %d", i, v, img.BitDepth, maxValue)
		}
	}

	return nil
}
