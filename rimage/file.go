// Package rimage holds image file I/O and the drawing helpers used to render predictions.
package rimage

import (
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ReadImageFromFile decodes the image at path, applying its EXIF orientation.
func ReadImageFromFile(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read image %q", path)
	}
	return img, nil
}

// WriteImageToFile encodes img in the format given by the extension of path, creating its
// directory if needed.
func WriteImageToFile(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.Wrapf(err, "cannot create directory for %q", path)
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return errors.Wrapf(err, "cannot write image %q", path)
	}
	return nil
}
