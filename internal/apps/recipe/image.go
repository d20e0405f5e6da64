package recipe

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/services"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const imageKeyPrefix = "uploads/recipe/"

var (
	ErrImageRequired = fmt.Errorf("%w: image is required", services.ErrValidation)
	ErrInvalidImage  = fmt.Errorf("%w: upload a valid image. The file you uploaded was either not an image or a corrupted image", services.ErrValidation)
)

// PreparedImage is an upload ready to be written to storage.
type PreparedImage struct {
	Key         string
	Data        []byte
	ContentType string
}

// ImageProcessor validates uploads and downscales anything larger than maxDimension.
type ImageProcessor struct {
	maxDimension int
}

func NewImageProcessor(maxDimension int) *ImageProcessor {
	return &ImageProcessor{maxDimension: maxDimension}
}

// ImageKey builds a collision-free storage key keeping the original extension.
func ImageKey(ext string) string {
	return imageKeyPrefix + uuid.New().String() + strings.ToLower(ext)
}

func (p *ImageProcessor) Prepare(data []byte, filename string) (*PreparedImage, error) {
	if len(data) == 0 {
		return nil, ErrImageRequired
	}

	cfg, formatName, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImage
	}

	ext := filepath.Ext(filename)
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		format, err = imaging.FormatFromExtension(formatName)
		if err != nil {
			return nil, ErrInvalidImage
		}
		ext = "." + formatName
	}

	out := data
	if p.maxDimension > 0 && (cfg.Width > p.maxDimension || cfg.Height > p.maxDimension) {
		resized := imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(90)); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		out = buf.Bytes()
	}

	return &PreparedImage{
		Key:         ImageKey(ext),
		Data:        out,
		ContentType: "image/" + strings.ToLower(format.String()),
	}, nil
}
