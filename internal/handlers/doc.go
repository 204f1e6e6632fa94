// Package handlers provides the HTTP operations surface of the indexer.
//
// It exposes liveness and readiness probes, the Prometheus scrape endpoint,
// build information and a JSON summary of the catalog and the last
// indexing run. Media content itself is not served here.
package handlers
