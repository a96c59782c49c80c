// Package progress tracks bytes received by one download session.
//
// An Aggregator is created per session and handed to every worker that
// writes data. Workers call Add after each chunk; readers call Snapshot.
// Watch polls an Aggregator on a ticker and forwards changes to a callback,
// so UI code never runs on a worker goroutine.
package progress
