// Package splithttp downloads a single HTTP(S) resource, splitting it into
// byte ranges fetched in parallel when the server allows it.
//
// # Flow
//
//	Probe (HEAD) -> strategy
//	  size unknown or 1 worker -> one streamed GET, sequential writes
//	  otherwise                -> PlanRanges, one ranged GET per range,
//	                              positioned writes into a pre-sized file
//
// The Coordinator owns the output file for its whole lifetime. Segment
// workers only receive it as an io.WriterAt and never write outside their
// own range, so no lock is taken around file writes. Bytes received are
// counted in a progress.Aggregator shared by all workers of one session.
//
// The first failing segment cancels its siblings and is the error
// returned; a failed download leaves the partial file on disk.
package splithttp
