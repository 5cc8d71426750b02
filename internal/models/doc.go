// Package models defines the data carried through one track acquisition request.
//
// Every value here is created and discarded within a single pipeline run:
//   - [Locator] : classified user link (video, catalog track, or unrecognized)
//   - [TrackMetadata] : normalized catalog record, passed by value
//   - [Candidate] : the one playable locator chosen for retrieval
//   - [Artifact] : the local transcoded file, owned by exactly one request
//
// [RequestRecord] is the only persisted shape: a summary of a finished request written to
// the history table after the pipeline has released everything else.
package models
