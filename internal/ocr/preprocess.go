package ocr

import (
	"fmt"
	"os"

	"github.com/disintegration/imaging"
)

// minRecognitionWidth is the width small challenge photos are upscaled to.
// The sidecar's accuracy drops sharply on thumbnails.
const minRecognitionWidth = 900

// Preprocess prepares a challenge photo for recognition: orientation is
// normalized from EXIF, the image is grayscaled, and small images are
// upscaled. The result lands in a new temporary PNG; the caller owns both
// the input and the returned file.
func Preprocess(imagePath string) (string, error) {
	img, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("ocr: decode image %q: %w", imagePath, err)
	}

	img = imaging.Grayscale(img)
	if img.Bounds().Dx() < minRecognitionWidth {
		img = imaging.Resize(img, minRecognitionWidth, 0, imaging.Lanczos)
	}

	out, err := os.CreateTemp("", "grindbot_ocr_*.png")
	if err != nil {
		return "", fmt.Errorf("ocr: create temp file: %w", err)
	}
	out.Close()

	if err := imaging.Save(img, out.Name()); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("ocr: save preprocessed image: %w", err)
	}
	return out.Name(), nil
}
