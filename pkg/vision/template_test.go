package vision

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tpl.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestService_FindTemplate(t *testing.T) {
	tpl := checker(16, 16, 4)
	frame := frameWith(tpl, image.Pt(20, 12))
	path := writePNG(t, tpl)

	svc := NewService()
	dets, err := svc.FindTemplate(context.Background(), frame, path, 0.9, FullRegion())
	if err != nil {
		t.Fatalf("FindTemplate: %v", err)
	}
	if len(dets) != 1 || dets[0].X != 20 || dets[0].Y != 12 {
		t.Fatalf("detections = %v", dets)
	}
}

func TestService_MissingTemplate(t *testing.T) {
	svc := NewService()
	_, err := svc.FindTemplate(context.Background(),
		image.NewGray(image.Rect(0, 0, 32, 32)),
		filepath.Join(t.TempDir(), "absent.png"), 0.8, FullRegion())
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestService_UndecodableTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadImage(path); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestService_CachesDecodedTemplates(t *testing.T) {
	tpl := checker(16, 16, 4)
	frame := frameWith(tpl, image.Pt(20, 12))
	path := writePNG(t, tpl)

	svc := NewService()
	if _, err := svc.FindTemplate(context.Background(), frame, path, 0.9, FullRegion()); err != nil {
		t.Fatalf("first FindTemplate: %v", err)
	}

	// The decoded template outlives the file.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	dets, err := svc.FindTemplate(context.Background(), frame, path, 0.9, FullRegion())
	if err != nil {
		t.Fatalf("cached FindTemplate: %v", err)
	}
	if len(dets) != 1 {
		t.Fatalf("detections = %v", dets)
	}
}

func TestService_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewService()
	if _, err := svc.FindTemplate(ctx,
		image.NewGray(image.Rect(0, 0, 32, 32)),
		"irrelevant.png", 0.8, FullRegion()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
