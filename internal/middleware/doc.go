// Package middleware provides HTTP middleware for the ops server.
//
// Logger writes one W3C Extended Log Format line per request through the
// application logger. Metrics records request counts and latencies labelled
// by the matched route template.
package middleware
