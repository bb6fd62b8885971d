package ocr

import (
	"encoding/hex"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// imageKeyPrefix marks cache keys derived from in-memory images.
const imageKeyPrefix = "img:blake2b:"

// DecoderOption customises a Decoder.
type DecoderOption func(*Decoder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) DecoderOption {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Decoder memoizes Engine results by image content key.
type Decoder struct {
	engine Engine
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]string
	dirty bool
}

// NewDecoder creates a Decoder with an empty cache.
func NewDecoder(engine Engine, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		engine: engine,
		logger: slog.Default(),
		cache:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "ocr")
	return d
}

// DecodePayload recognizes an inline image payload. The payload string itself
// is the cache key, so a hit costs no image decoding at all.
func (d *Decoder) DecodePayload(payload string, mode Mode) (string, error) {
	if text, ok := d.lookup(payload); ok {
		return text, nil
	}

	img, err := DecodeDataURI(payload)
	if err != nil {
		return "", err
	}
	return d.recognize(payload, img, mode)
}

// DecodeImage recognizes an in-memory image, typically one produced by
// CropLeft or Composite.
func (d *Decoder) DecodeImage(img image.Image, mode Mode) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", ErrInvalidImage
	}
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	sum := blake2b.Sum256(data)
	key := imageKeyPrefix + hex.EncodeToString(sum[:])
	if text, ok := d.lookup(key); ok {
		return text, nil
	}
	return d.recognizePNG(key, data, mode)
}

// CacheLen returns the number of memoized results.
func (d *Decoder) CacheLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cache)
}

func (d *Decoder) lookup(key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	text, ok := d.cache[key]
	return text, ok
}

func (d *Decoder) recognize(key string, img image.Image, mode Mode) (string, error) {
	if img.Bounds().Empty() {
		return "", ErrInvalidImage
	}
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	return d.recognizePNG(key, data, mode)
}

func (d *Decoder) recognizePNG(key string, data []byte, mode Mode) (string, error) {
	text, err := d.engine.Recognize(data, mode)
	if err != nil {
		return "", fmt.Errorf("failed to recognize %s glyph: %w", mode, err)
	}
	text = strings.TrimSpace(text)

	d.mu.Lock()
	d.cache[key] = text
	d.dirty = true
	d.mu.Unlock()

	d.logger.Debug("glyph recognized", "mode", mode.String(), "text", text)
	return text, nil
}
