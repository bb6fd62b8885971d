// Package extract maps the markup of the admissions site to model records.
//
// Every extractor is a function of the page markup alone, except the
// cross-check and vocational-selection candidate extractor which also needs a
// GlyphReader for the image-rendered tickets, names and waitlist numbers.
// Pages without the expected anchors yield empty results rather than errors,
// and errors are reserved for unreadable input. Glyph recognition is best
// effort: failures are logged and leave the affected field empty.
package extract
