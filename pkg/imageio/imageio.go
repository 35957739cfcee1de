// Package imageio loads and saves images and converts between image.Image and
// the band-interleaved models.Image used by the segmentation pipeline.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"somsegment/internal/models"
)

// Extensions lists the file types Load and Save understand
var Extensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp"}

// Supported reports whether path has one of the known extensions
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads an image file and converts it with FromImage
func Load(path string) (*models.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &models.IOError{Op: "open", Path: path, Err: err}
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, models.NewDataError("failed to decode %s: %v", path, err)
	}

	return FromImage(img), nil
}

// Save writes img to path, picking the encoder from the file extension
func Save(path string, img *models.Image) error {
	std, err := ToImage(img)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return &models.ConfigError{Param: "output", Value: path, Reason: fmt.Sprintf("has unsupported extension %q", ext)}
	}

	file, err := os.Create(path)
	if err != nil {
		return &models.IOError{Op: "create", Path: path, Err: err}
	}
	defer file.Close()

	switch ext {
	case ".png":
		err = png.Encode(file, std)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(file, std, &jpeg.Options{Quality: 90})
	case ".tif", ".tiff":
		err = tiff.Encode(file, std, &tiff.Options{Compression: tiff.Deflate})
	case ".bmp":
		err = bmp.Encode(file, std)
	}
	if err != nil {
		return &models.IOError{Op: "encode", Path: path, Err: err}
	}

	if err := file.Close(); err != nil {
		return &models.IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}

// FromImage converts a decoded image to samples. Grayscale images give one band,
// everything else three (alpha is dropped). 16-bit sources keep 16-bit samples.
func FromImage(src image.Image) *models.Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	switch s := src.(type) {
	case *image.Gray:
		img, _ := models.NewImage(height, width, 1, 8)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				img.Set(y, x, 0, uint16(s.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y))
			}
		}
		return img

	case *image.Gray16:
		img, _ := models.NewImage(height, width, 1, 16)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				img.Set(y, x, 0, s.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
		return img

	case *image.RGBA64, *image.NRGBA64:
		img, _ := models.NewImage(height, width, 3, 16)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := color.NRGBA64Model.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
				copy(img.Pixel(y, x), []uint16{c.R, c.G, c.B})
			}
		}
		return img
	}

	img, _ := models.NewImage(height, width, 3, 8)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			copy(img.Pixel(y, x), []uint16{uint16(c.R), uint16(c.G), uint16(c.B)})
		}
	}
	return img
}

// ToImage converts samples back to an image.Image. One band becomes grayscale,
// three bands RGB. Depths up to 8 bits map to 8-bit images, deeper ones to 16-bit.
func ToImage(img *models.Image) (image.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	rect := image.Rect(0, 0, img.Width, img.Height)
	maxValue := uint32(img.MaxValue())
	wide := img.BitDepth > 8
	scale := func(v uint16, full uint32) uint16 {
		return uint16((uint32(v)*full + maxValue/2) / maxValue)
	}

	switch img.Bands {
	case 1:
		if wide {
			out := image.NewGray16(rect)
			for y := 0; y < img.Height; y++ {
				for x := 0; x < img.Width; x++ {
					out.SetGray16(x, y, color.Gray16{Y: scale(img.At(y, x, 0), 0xffff)})
				}
			}
			return out, nil
		}
		out := image.NewGray(rect)
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				out.SetGray(x, y, color.Gray{Y: uint8(scale(img.At(y, x, 0), 0xff))})
			}
		}
		return out, nil

	case 3:
		if wide {
			out := image.NewRGBA64(rect)
			for y := 0; y < img.Height; y++ {
				for x := 0; x < img.Width; x++ {
					p := img.Pixel(y, x)
					out.SetRGBA64(x, y, color.RGBA64{R: scale(p[0], 0xffff), G: scale(p[1], 0xffff), B: scale(p[2], 0xffff), A: 0xffff})
				}
			}
			return out, nil
		}
		out := image.NewRGBA(rect)
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				p := img.Pixel(y, x)
				out.SetRGBA(x, y, color.RGBA{R: uint8(scale(p[0], 0xff)), G: uint8(scale(p[1], 0xff)), B: uint8(scale(p[2], 0xff)), A: 0xff})
			}
		}
		return out, nil
	}

	return nil, models.NewDataError("cannot encode an image with %d bands", img.Bands)
}

// Preview shrinks img to at most maxHeight rows keeping its aspect ratio.
// Images that already fit are returned unchanged.
func Preview(img image.Image, maxHeight int) image.Image {
	bounds := img.Bounds()
	if maxHeight < 1 || bounds.Dy() <= maxHeight {
		return img
	}

	width := bounds.Dx() * maxHeight / bounds.Dy()
	if width < 1 {
		width = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, maxHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
