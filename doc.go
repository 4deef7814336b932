// Package postsapi is a small blog posts service.
//
// It keeps posts in memory and serves them over a JSON HTTP API:
// searching, listing, creating, reading, replacing and deleting posts.
// Every change is also published as an event on an in-process Pub/Sub,
// so other parts of the process (like the audit log) can follow what happens.
//
// This package holds the pieces shared by all the others:
// the LoggerAdapter abstraction and id generators.
//
// Run the service with:
//
//	go run ./cmd/postsapi serve --addr :3000
package postsapi
