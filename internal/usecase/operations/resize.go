// Package operations holds the pure image transforms shared by the eager
// variant transcoder and the on-demand thumbnail service. The two resize
// policies here are intentionally different and must stay that way: eager
// variants fit inside the box without upscaling, the on-demand path fills
// the exact requested box, cropping as needed.
package operations

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrProcessing marks an unexpected decode or encode failure on bytes we
// already retrieved successfully.
var ErrProcessing = errors.New("image processing failed")

// Decode reads source bytes into an image, normalizing EXIF rotation so every
// derived rendition is upright regardless of camera metadata.
func Decode(src []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// FitInside scales the image down so its longer edge fits within maxWidth,
// preserving aspect ratio. Sources already smaller than the box are returned
// at their native resolution, never upscaled.
func FitInside(img image.Image, maxWidth int) image.Image {
	return imaging.Fit(img, maxWidth, maxWidth, imaging.Lanczos)
}

// Cover resizes and center-crops to exactly width x height.
func Cover(img image.Image, width, height int) image.Image {
	return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
}
