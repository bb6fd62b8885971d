// Package fetcher retrieves page markup from the admissions site.
//
// A Fetcher issues direct GET requests with a browser-like user agent. When
// the site answers with a Cloudflare challenge, the Fetcher asks a FlareSolverr
// instance to load the page in a real browser, returns the solved markup and
// keeps the clearance cookies and user agent for every later request. The
// whole exchange is retried a fixed number of times with a fixed delay.
//
// One Fetcher represents one browser session and is meant to be created once
// per process and shared by every crawler.
package fetcher
