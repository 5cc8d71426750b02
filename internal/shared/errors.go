package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed = fmt.Errorf("authentication failed")
	ErrTimeout    = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Pipeline errors. Fatal ones end the request in FAILED; ErrClassificationAmbiguous marks a
	// REJECTED outcome and ErrTagWrite never leaves the tag enricher.
	ErrClassificationAmbiguous = fmt.Errorf("unrecognized link")
	ErrMetadataFetch           = fmt.Errorf("metadata fetch failed")
	ErrNoCandidateFound        = fmt.Errorf("no matching tracks found")
	ErrRetrieval               = fmt.Errorf("audio retrieval failed")
	ErrTagWrite                = fmt.Errorf("tag write failed")
	ErrDelivery                = fmt.Errorf("delivery failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
