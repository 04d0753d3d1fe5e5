package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/glazed-darnut/VerifyBot/common"
)

// Slice splits a tall screenshot into overlapping horizontal bands no taller
// than maxBandHeight+overlap, where overlap = maxBandHeight/6. The overlap
// keeps text that straddles a cut line readable in at least one band. Band
// files are written as PNGs next to the source; the caller owns their
// lifecycle and should delete each band as soon as its text is extracted.
func Slice(imagePath string, maxBandHeight int) ([]string, error) {
	if maxBandHeight <= 0 {
		return nil, fmt.Errorf("band height must be positive, got %v", maxBandHeight)
	}
	img, err := decode(imagePath)
	if err != nil {
		return nil, err
	}
	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("image type %T does not support sub-image", img)
	}

	b := img.Bounds()
	h := b.Dy()
	n := (h + maxBandHeight - 1) / maxBandHeight
	overlap := maxBandHeight / 6

	dir := filepath.Dir(imagePath)
	bands := make([]string, 0, n)
	for i := 0; i < n; i++ {
		top := b.Min.Y + i*maxBandHeight
		bottom := common.Min(b.Min.Y+(i+1)*maxBandHeight+overlap, b.Max.Y)
		band := sub.SubImage(image.Rect(b.Min.X, top, b.Max.X, bottom))
		path := filepath.Join(dir, fmt.Sprintf("band-%03d.png", i))
		if err := writePNG(path, band); err != nil {
			RemoveAll(bands)
			return nil, err
		}
		bands = append(bands, path)
	}
	return bands, nil
}

// RemoveAll deletes the given band files, ignoring already-deleted ones.
func RemoveAll(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
