// Package tesseract provides an ocr.Engine backed by libtesseract.
package tesseract

import (
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/comtw/admscrape/internal/ocr"
)

const digits = "0123456789"

// Options configures the engine.
type Options struct {
	// Language is the tessdata language, e.g. "eng".
	Language string
	// TessdataPrefix overrides the tessdata directory when set.
	TessdataPrefix string
}

// Engine recognizes text with one reusable Tesseract client.
// The client is not safe for concurrent use, so calls are serialised.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

var _ ocr.Engine = (*Engine)(nil)

// New creates an Engine. Close must be called to release the client.
func New(opts Options) (*Engine, error) {
	client := gosseract.NewClient()
	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if opts.Language != "" {
		if err := client.SetLanguage(opts.Language); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to set language: %w", err)
		}
	}
	return &Engine{client: client}, nil
}

// Recognize implements ocr.Engine.
func (e *Engine) Recognize(png []byte, mode ocr.Mode) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	psm := gosseract.PSM_SINGLE_LINE
	whitelist := ""
	switch mode {
	case ocr.ModeChar:
		psm = gosseract.PSM_SINGLE_CHAR
	case ocr.ModeDigits:
		whitelist = digits
	}

	if err := e.client.SetPageSegMode(psm); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := e.client.SetWhitelist(whitelist); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := e.client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return text, nil
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
