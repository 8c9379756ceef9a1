// Package capture provides kiosk cameras backed by image files, for headless
// kiosks and demos where no video device is available.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/facemood/internal/kiosk"
)

// Frames are scaled down to fit 1280x720.
const (
	MaxWidth  = 1280
	MaxHeight = 720
)

var ErrNoImages = errors.New("capture: no images found")

var supportedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// FileCamera replays a single image or every image in a directory, in name
// order, wrapping around at the end.
type FileCamera struct {
	Path string
}

var _ kiosk.Camera = (*FileCamera)(nil)

func (c *FileCamera) Open(ctx context.Context) (kiosk.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Path, err)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(c.Path)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", c.Path, err)
		}
		for _, e := range entries {
			if e.IsDir() || !supportedExt[strings.ToLower(filepath.Ext(e.Name()))] {
				continue
			}
			files = append(files, filepath.Join(c.Path, e.Name()))
		}
		sort.Strings(files)
	} else {
		files = []string{c.Path}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, c.Path)
	}

	return &fileStream{files: files}, nil
}

type fileStream struct {
	mu     sync.Mutex
	files  []string
	next   int
	closed bool
}

func (s *fileStream) Capture(ctx context.Context) (kiosk.Frame, error) {
	if err := ctx.Err(); err != nil {
		return kiosk.Frame{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return kiosk.Frame{}, errors.New("capture: stream closed")
	}
	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	s.mu.Unlock()

	img, err := decodeFile(path)
	if err != nil {
		return kiosk.Frame{}, err
	}
	return kiosk.Frame{Image: Fit(img, MaxWidth, MaxHeight)}, nil
}

func (s *fileStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// Fit scales img down, keeping its aspect ratio, until it fits in
// maxW x maxH. Smaller images are returned unchanged.
func Fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(int(float64(w)*scale), 1)
	nh := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
