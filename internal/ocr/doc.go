// Package ocr turns glyph images into text.
//
// The admissions site renders tickets, candidate names and waitlist numbers
// as small inline images. A Decoder hands each image to an Engine once and
// memoizes the result by content key, so the same glyph seen on thousands of
// pages is recognized a single time. The cache is loaded from and saved to a
// JSON file between runs.
//
// The Tesseract engine lives in the tesseract subpackage because it needs cgo.
package ocr
