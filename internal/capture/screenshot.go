package capture

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/kbinani/screenshot"
)

// Screenshotter снимает основной экран и кодирует снимок в JPEG
type Screenshotter struct {
	quality int
}

func NewScreenshotter(quality int) *Screenshotter {
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	return &Screenshotter{quality: quality}
}

// Capture возвращает JPEG-снимок основного дисплея
func (s *Screenshotter) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active displays found")
	}

	img, err := screenshot.CaptureRect(screenshot.GetDisplayBounds(0))
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}
