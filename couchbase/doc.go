// Package couchbase implements the core storage contracts on top of the
// official Couchbase Go SDK (gocb). It adapts gocb's Cluster / Collection
// surface into couchmesh's narrow Dialer / Handle / Collection interfaces
// and the query, search and vector extensions.
//
// Driver errors never escape this package: every operation translates gocb
// sentinel errors into kind-tagged core errors at the boundary, so callers
// classify failures without importing the SDK.
package couchbase
