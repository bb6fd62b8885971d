package extract

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/comtw/admscrape/internal/ocr"
)

// NameMarker is the literal character the site prints in place of a hidden
// name character.
const NameMarker = "○"

// GlyphReader recognizes glyph images. *ocr.Decoder implements it.
type GlyphReader interface {
	DecodePayload(payload string, mode ocr.Mode) (string, error)
	DecodeImage(img image.Image, mode ocr.Mode) (string, error)
}

// glyphPiece is one name element located in the cell markup.
type glyphPiece struct {
	pos    int
	src    string
	marker bool
}

// payloadHeadLen bounds how much of an image source is logged.
const payloadHeadLen = 48

// payloadHead returns the start of an image source for log lines.
func payloadHead(payload string) string {
	for i := range payload {
		if i >= payloadHeadLen {
			return payload[:i] + "..."
		}
	}
	return payload
}

// readLine recognizes a one-line payload such as a ticket image.
// Undecodable payloads are logged and yield an empty string.
func readLine(glyphs GlyphReader, payload string, logger *slog.Logger) (string, error) {
	text, err := glyphs.DecodePayload(payload, ocr.ModeLine)
	if errors.Is(err, ocr.ErrInvalidImage) {
		logger.Warn("undecodable line image", "payload", payloadHead(payload), "error", err)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return CleanString(text), nil
}

// readScaled decodes payload, optionally crops a leading icon, scales it onto
// white and recognizes it in mode. Undecodable payloads are logged and yield
// an empty string.
func readScaled(glyphs GlyphReader, payload string, crop, scale int, mode ocr.Mode, logger *slog.Logger) (string, error) {
	img, err := ocr.DecodeDataURI(payload)
	if err != nil {
		logger.Warn("undecodable glyph image", "payload", payloadHead(payload), "error", err)
		return "", nil
	}
	img = ocr.Composite(ocr.CropLeft(img, crop), color.White, scale)

	text, err := glyphs.DecodeImage(img, mode)
	if errors.Is(err, ocr.ErrInvalidImage) {
		logger.Warn("unreadable glyph image", "payload", payloadHead(payload), "error", err)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return CleanString(text), nil
}

// readName rebuilds a candidate name from a cell mixing glyph images and
// marker characters. Order follows the position of each piece in the cell's
// rendered markup. A cell without images is read as plain text.
func readName(glyphs GlyphReader, cell *goquery.Selection, scale int, logger *slog.Logger) (string, error) {
	imgs := cell.Find("img")
	if imgs.Length() == 0 {
		return CleanString(cell.Text()), nil
	}

	markup, err := goquery.OuterHtml(cell)
	if err != nil {
		return "", fmt.Errorf("failed to render name cell: %w", err)
	}

	var pieces []glyphPiece
	for from := 0; ; {
		i := strings.Index(markup[from:], NameMarker)
		if i < 0 {
			break
		}
		pieces = append(pieces, glyphPiece{pos: from + i, marker: true})
		from += i + len(NameMarker)
	}

	from := 0
	imgs.Each(func(_ int, img *goquery.Selection) {
		src := img.AttrOr("src", "")
		if src == "" {
			return
		}
		// Rendering may escape attribute text; fall back to the rendered form.
		i := strings.Index(markup[from:], src)
		if i < 0 {
			src = escapeAttr(src)
			i = strings.Index(markup[from:], src)
		}
		if i < 0 {
			return
		}
		pieces = append(pieces, glyphPiece{pos: from + i, src: img.AttrOr("src", "")})
		from += i + len(src)
	})

	slices.SortStableFunc(pieces, func(a, b glyphPiece) int { return cmp.Compare(a.pos, b.pos) })

	var name strings.Builder
	for _, p := range pieces {
		if p.marker {
			name.WriteString(NameMarker)
			continue
		}
		char, err := readScaled(glyphs, p.src, 0, scale, ocr.ModeChar, logger)
		if err != nil {
			return "", err
		}
		name.WriteString(char)
	}
	return name.String(), nil
}

var attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&#34;", "'", "&#39;", "<", "&lt;", ">", "&gt;")

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
