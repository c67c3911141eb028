package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	_ "golang.org/x/image/webp"
)

// ErrTemplateNotFound is returned when a template path does not exist or
// cannot be decoded. Activities treat this as a failure, not a miss.
var ErrTemplateNotFound = errors.New("vision: template not found")

// LoadImage decodes a PNG, JPEG, or WebP image from disk.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrTemplateNotFound, path, err)
	}
	return img, nil
}

// Service runs template searches against images, loading templates from
// disk with a small decode cache. Safe for concurrent use.
type Service struct {
	Matcher *Matcher

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewService returns a Service backed by a default Matcher.
func NewService() *Service {
	return &Service{
		Matcher: NewMatcher(),
		cache:   make(map[string]image.Image),
	}
}

// FindTemplate searches src for the template at templatePath, returning all
// matches at or above threshold ranked by confidence.
func (s *Service) FindTemplate(ctx context.Context, src image.Image, templatePath string, threshold float64, region Region) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tpl, err := s.template(templatePath)
	if err != nil {
		return nil, err
	}
	return s.Matcher.FindAll(src, tpl, threshold, region)
}

// FindTemplateMultiScale is FindTemplate across a geometric range of
// template scales.
func (s *Service) FindTemplateMultiScale(ctx context.Context, src image.Image, templatePath string, threshold, minScale, maxScale float64, steps int, region Region) ([]Detection, error) {
	tpl, err := s.template(templatePath)
	if err != nil {
		return nil, err
	}
	return s.Matcher.FindMultiScale(ctx, src, tpl, threshold, minScale, maxScale, steps, region)
}

func (s *Service) template(path string) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if img, ok := s.cache[path]; ok {
		return img, nil
	}
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	s.cache[path] = img
	return img, nil
}
