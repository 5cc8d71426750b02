// Package tasks runs the track acquisition pipeline with per-request isolation.
//
// # Flows
//
// [Pipeline.Run] accepts a classified [models.Locator] and follows one of two flows:
//
//  1. Video link: retrieve → deliver
//     - The link itself is the candidate
//     - The title comes from the extraction engine
//
//  2. Catalog track link: resolve → select → retrieve → tag → deliver
//     - [Pipeline.Resolve] looks the track up once and normalizes it
//     - A track card (with cover photo when available) is sent before searching
//     - [Pipeline.Select] trusts the engine's first search result for "{title} {artists} audio"
//     - The delivered title is always the catalog title
//
// Unrecognized input is answered with [UsageHint] and never enters either flow.
//
// # States
//
// Every run walks RECEIVED → CLASSIFIED → [METADATA_RESOLVED → SEARCHED] → RETRIEVED → [TAGGED]
// and ends in DELIVERED, FAILED or REJECTED. [Outcome.Trace] holds the visited states and the
// optional progress channel receives each transition without blocking.
//
// # Errors
//
// Resolve, Select and Retrieve return sentinel-wrapped errors (ErrMetadataFetch,
// ErrNoCandidateFound, ErrRetrieval) that end the run in FAILED; [UserMessage] turns them into
// the status text. Tagging reports through a value and never fails a run.
//
// # Cleanup
//
// Each request downloads into WorkDir/<request id>/. The artifact is removed by [Pipeline.Deliver]
// after the send attempt, and the scratch directory is removed when Run returns on any path.
//
// # History
//
// The optional [Recorder] receives one [models.RequestRecord] per finished request.
// Recording is best effort: errors are logged and ignored.
package tasks
