package publication

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
)

var errDecode = errors.New("not an image")

// memoryFetcher serves resources from a map and records every read.
type memoryFetcher struct {
	mu        sync.Mutex
	resources map[string][]byte
	reads     []string
}

func newMemoryFetcher(resources map[string][]byte) *memoryFetcher {
	return &memoryFetcher{resources: resources}
}

func (f *memoryFetcher) Read(_ context.Context, link Link) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, link.Href)
	data, ok := f.resources[link.Href]
	if !ok {
		return nil, &FetchError{Href: link.Href, Err: ErrResourceNotFound}
	}
	return data, nil
}

func (f *memoryFetcher) Reads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reads...)
}

// fakeImages "decodes" payloads of the form "img:WxH" and scales by
// allocating a new bitmap of the fitted size.
type fakeImages struct {
	mu     sync.Mutex
	scaled []image.Image
}

func (p *fakeImages) Decode(data []byte) (image.Image, error) {
	var w, h int
	if _, err := fmt.Sscanf(string(data), "img:%dx%d", &w, &h); err != nil {
		return nil, &DecodeError{Err: errDecode}
	}
	return newBitmap(w, h), nil
}

func (p *fakeImages) ScaleToFit(img image.Image, maxSize Size) image.Image {
	p.mu.Lock()
	p.scaled = append(p.scaled, img)
	p.mu.Unlock()

	b := img.Bounds()
	ratio := min(float64(maxSize.Width)/float64(b.Dx()), float64(maxSize.Height)/float64(b.Dy()))
	if ratio >= 1 {
		return img
	}
	return newBitmap(max(1, int(float64(b.Dx())*ratio)), max(1, int(float64(b.Dy())*ratio)))
}

func newBitmap(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img
}

// staticCover is a CoverService returning a fixed bitmap.
type staticCover struct {
	cover image.Image
	err   error
}

func (s *staticCover) Cover(context.Context) (image.Image, error) {
	return s.cover, s.err
}

// fittingCover also implements CoverFitter.
type fittingCover struct {
	staticCover
	fitted image.Image
	sizes  []Size
}

func (s *fittingCover) CoverFitting(_ context.Context, maxSize Size) (image.Image, error) {
	s.sizes = append(s.sizes, maxSize)
	return s.fitted, nil
}
