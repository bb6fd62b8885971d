package ocr

// Mode selects a recognition profile.
type Mode int

const (
	// ModeLine treats the image as one line of text.
	ModeLine Mode = iota
	// ModeChar treats the image as a single character.
	ModeChar
	// ModeDigits treats the image as one line of digits only.
	ModeDigits
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeLine:
		return "line"
	case ModeChar:
		return "char"
	case ModeDigits:
		return "digits"
	default:
		return "unknown"
	}
}

// Engine recognizes text in a PNG image.
type Engine interface {
	Recognize(png []byte, mode Mode) (string, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(png []byte, mode Mode) (string, error)

// Recognize calls f.
func (f EngineFunc) Recognize(png []byte, mode Mode) (string, error) {
	return f(png, mode)
}
