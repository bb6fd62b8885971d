// Package model defines the records passed between the extractors, the
// crawlers and the store.
//
// Extraction records (School, Department, Candidate, AdmissionPage) live only
// for the duration of one page: they are produced by the extract package and
// consumed by the crawler when it writes to the database. RunReport and
// CrawlStats summarise a whole scrape for logging and the Markdown report.
package model
