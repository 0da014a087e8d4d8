package model

// DispatchEvent is the sole external input that starts an orchestration
// run. It arrives exactly once per run and is immutable.
type DispatchEvent struct {
	// Version is the release version identifier, used verbatim as the
	// release tag after validation.
	Version string `json:"version"`
}
