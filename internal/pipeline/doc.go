// Package pipeline drives a scrape run.
//
// The Orchestrator reads the landing page to learn which academic years each
// admission method offers, narrows them by the requested Selection and plans
// one CrawlStep per (method, year). A Pipeline then runs the steps in order,
// pausing for a fixed delay between the end of one crawl and the start of the
// next so the site sees a steady, unhurried request pattern.
//
// A failing or panicking step is logged and recorded in the RunReport and the
// next step still runs; only planning failures and cancellation end a run
// early.
package pipeline
