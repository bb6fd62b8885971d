package model

import (
	"errors"
	"fmt"
)

// ErrUnknownMethod is returned when an admission method identifier or label
// does not name one of the five known pipelines.
var ErrUnknownMethod = errors.New("unknown admission method")

// Method identifies one admission-result pipeline published by the site.
// The string value is the identifier used on the command line and in URL paths.
type Method string

const (
	// MethodExam is the exam-score placement pipeline (分科測驗).
	MethodExam Method = "exam"

	// MethodStar is the merit-star recommendation pipeline (大學繁星).
	MethodStar Method = "star"

	// MethodCross is the cross-check application pipeline (學測查榜).
	// It covers both general and technical universities.
	MethodCross Method = "cross"

	// MethodVtech is the vocational-track selection pipeline (統測甄選).
	MethodVtech Method = "vtech"

	// MethodTechreg is the vocational-track placement pipeline (統測分發).
	MethodTechreg Method = "techreg"
)

// methodLabels maps each method to the navigation label shown on the landing page.
// The label doubles as the AdmissionType name in the relational store.
var methodLabels = map[Method]string{
	MethodExam:    "分科測驗",
	MethodStar:    "大學繁星",
	MethodCross:   "學測查榜",
	MethodVtech:   "統測甄選",
	MethodTechreg: "統測分發",
}

// Methods returns all known methods in crawl order.
func Methods() []Method {
	return []Method{MethodExam, MethodStar, MethodCross, MethodVtech, MethodTechreg}
}

// Label returns the human label of the method, or an empty string for an
// unknown method.
func (m Method) Label() string {
	return methodLabels[m]
}

// Valid reports whether m is one of the known methods.
func (m Method) Valid() bool {
	_, ok := methodLabels[m]
	return ok
}

// String implements fmt.Stringer.
func (m Method) String() string {
	return string(m)
}

// ParseMethod converts a command-line identifier into a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
	return m, nil
}

// MethodByLabel finds the method whose navigation label equals label.
func MethodByLabel(label string) (Method, bool) {
	for m, l := range methodLabels {
		if l == label {
			return m, true
		}
	}
	return "", false
}
