// Package config provides the configuration of admscrape: request and retry
// settings for the fetcher, the FlareSolverr fallback, pacing between crawls,
// the relational store, logging and OCR.
//
// Values come from NewConfig defaults overridden by an optional YAML file.
package config
