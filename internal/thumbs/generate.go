package thumbs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	// Register decoders beyond what imaging pulls in itself.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	// ThumbMaxSize bounds image thumbnails to a 400x400 box.
	ThumbMaxSize = 400
	// ThumbQuality is the JPEG encode quality.
	ThumbQuality = 80
	// videoSeek is where in the video the preview frame is grabbed.
	videoSeek = "00:00:05"
	// videoScale is the ffmpeg scale filter for video thumbnails.
	videoScale = "scale=320:-1"
)

// ErrUnsupportedMedia indicates the file type has no thumbnail support.
var ErrUnsupportedMedia = errors.New("unsupported media type")

// IsImage reports whether a file name has a decodable image type.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

// IsVideo reports whether a file name has a recognized video type.
func IsVideo(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".mkv", ".webm", ".avi", ".mov", ".m4v", ".flv", ".wmv", ".mpg", ".mpeg":
		return true
	}
	return false
}

// NewGenerator returns a Generator that renders image thumbnails in-process
// and video thumbnails via an ffmpeg frame grab.
func NewGenerator(ffmpegPath string) Generator {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return func(ctx context.Context, absPath string) ([]byte, error) {
		name := filepath.Base(absPath)
		switch {
		case IsImage(name):
			return generateImage(absPath)
		case IsVideo(name):
			return generateVideo(ctx, ffmpegPath, absPath)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, filepath.Ext(name))
		}
	}
}

// generateImage decodes the image, applies EXIF orientation, fits it into
// the thumbnail box and re-encodes as JPEG.
func generateImage(absPath string) ([]byte, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = applyOrientation(img, orientationOf(content))
	thumb := imaging.Fit(img, ThumbMaxSize, ThumbMaxSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: ThumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// orientationOf extracts the EXIF orientation tag, defaulting to 1.
func orientationOf(content []byte) int {
	x, err := exif.Decode(bytes.NewReader(content))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// applyOrientation transforms an image according to EXIF orientation value.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// generateVideo grabs one scaled frame a few seconds in, encoded as JPEG on
// ffmpeg's stdout.
func generateVideo(ctx context.Context, ffmpegPath, absPath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-ss", videoSeek,
		"-i", absPath,
		"-vframes", "1",
		"-vf", videoScale,
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, firstLine(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}
	return stdout.Bytes(), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
