// Package report renders a scrape run for people and tools.
//
// Three writers share the Writer interface:
//   - MarkdownWriter: a shareable summary with per-crawl tables, failures and
//     the years discovered on the landing page
//   - JSONWriter: the RunReport plus computed totals
//   - TableWriter: terminal tables drawn with go-pretty
//
// FormatForPath picks a writer from the --report file extension.
package report
