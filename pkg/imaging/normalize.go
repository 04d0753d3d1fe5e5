package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// Normalize prepares a screenshot for OCR: resize to workingWidth keeping the
// aspect ratio, then sharpen. The result is written as a PNG into dir and is a
// disposable intermediate the caller must remove.
func Normalize(srcPath, dir string, workingWidth int) (string, error) {
	img, err := decode(srcPath)
	if err != nil {
		return "", err
	}
	b := img.Bounds()
	if b.Dx() != workingWidth {
		h := b.Dy() * workingWidth / b.Dx()
		scaled := image.NewRGBA(image.Rect(0, 0, workingWidth, h))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Over, nil)
		img = scaled
	}
	sharpened := sharpen(img)

	out := filepath.Join(dir, "normalized.png")
	if err := writePNG(out, sharpened); err != nil {
		return "", err
	}
	return out, nil
}

// sharpen applies a 3x3 unsharp kernel. Edges keep the source pixel.
func sharpen(img image.Image) *image.RGBA {
	b := img.Bounds()
	src := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)
	dst := image.NewRGBA(src.Bounds())
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				dst.SetRGBA(x, y, src.RGBAAt(x, y))
				continue
			}
			c := src.RGBAAt(x, y)
			r := 5*int(c.R) - int(src.RGBAAt(x-1, y).R) - int(src.RGBAAt(x+1, y).R) - int(src.RGBAAt(x, y-1).R) - int(src.RGBAAt(x, y+1).R)
			g := 5*int(c.G) - int(src.RGBAAt(x-1, y).G) - int(src.RGBAAt(x+1, y).G) - int(src.RGBAAt(x, y-1).G) - int(src.RGBAAt(x, y+1).G)
			bl := 5*int(c.B) - int(src.RGBAAt(x-1, y).B) - int(src.RGBAAt(x+1, y).B) - int(src.RGBAAt(x, y-1).B) - int(src.RGBAAt(x, y+1).B)
			dst.SetRGBA(x, y, color.RGBA{clamp(r), clamp(g), clamp(bl), c.A})
		}
	}
	return dst
}

func clamp(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %v: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
