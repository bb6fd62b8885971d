package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/width"
)

var (
	// schoolSuffixPattern splits "國立臺灣大學 資訊工程學系" at the first
	// degree-granting institution suffix.
	schoolSuffixPattern = regexp.MustCompile(`^(.+?(?:大學|學院|學校))\s*(.*)$`)

	// schoolIDPattern splits "001 國立臺灣大學" into code and name.
	schoolIDPattern = regexp.MustCompile(`^(\d+)\s*(.+)$`)

	schoolSuffixes = []string{"大學", "學院", "學校"}

	whitespaceReplacer = strings.NewReplacer("\u00a0", " ", "\n", " ", "\r", " ", "\t", " ")
)

// CleanString normalises cell text: non-breaking spaces and line breaks become
// spaces, full-width forms fold to their canonical width, and the result is trimmed.
func CleanString(s string) string {
	return strings.TrimSpace(width.Fold.String(whitespaceReplacer.Replace(s)))
}

// CleanSplit cleans s, splits it on sep into at most n pieces (n < 0 means all,
// as in strings.SplitN), cleans each piece and drops empty ones.
func CleanSplit(s, sep string, n int) []string {
	parts := strings.SplitN(CleanString(s), sep, n)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = CleanString(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitSchoolDepartment splits a "school department" cell. A leading
// whitespace-separated token ending in a school suffix wins; otherwise the
// shortest prefix ending in a suffix is the school. Without any suffix the
// text is split on the first space.
func SplitSchoolDepartment(s string) (school, department string) {
	s = CleanString(s)

	if head, tail, ok := strings.Cut(s, " "); ok && hasSchoolSuffix(head) {
		return head, strings.TrimSpace(tail)
	}
	if m := schoolSuffixPattern.FindStringSubmatch(s); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	return firstTwo(CleanSplit(s, " ", 2))
}

// SplitSchoolIDName splits a university list cell into its numeric code and name.
func SplitSchoolIDName(s string) (code, name string) {
	s = CleanString(s)
	if m := schoolIDPattern.FindStringSubmatch(s); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	return firstTwo(CleanSplit(s, " ", 2))
}

func hasSchoolSuffix(s string) bool {
	for _, suffix := range schoolSuffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func firstTwo(parts []string) (string, string) {
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[1]
	}
}

// parseDocument parses page markup for goquery.
func parseDocument(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}

// tableRows returns the direct rows of table, looking through an implicit tbody.
func tableRows(table *goquery.Selection) *goquery.Selection {
	return table.Find("tr").First().Parent().ChildrenFiltered("tr")
}

// cellText returns the cleaned text of the i-th cell in cells.
func cellText(cells *goquery.Selection, i int) string {
	return CleanString(cells.Eq(i).Text())
}
