// Package crawler walks one admission method's pages for one academic year
// and persists what it finds.
//
// # Architecture
//
// Every method is described by a Descriptor: its URL templates (one Track per
// school category), the department and admission extractors for its pages and
// a RecordMapper that turns an extracted admission page into database rows.
// A single Crawler type drives every Descriptor through the same nested walk:
//
//	university list -> per university: department list
//	                -> per department: admission list -> save
//
// # Failure handling
//
// A failed or empty university list ends the track with an error and nothing
// written. A failed department list skips that university, and a failed or
// empty admission list skips that department. Fetch retries are the fetcher's
// business; the crawler never retries.
//
// # Usage
//
//	descs := crawler.Descriptors(decoder, crawler.GlyphOptions{Scale: 3, IconWidth: 8})
//	c := crawler.New(f, store, descs[model.MethodCross], crawler.WithBaseURL(base))
//	stats, err := c.Crawl(ctx, "113")
package crawler
