package trigger

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/specialistvlad/shipgrid/internal/model"
)

// ErrInvalidTrigger marks a dispatch event with a missing or malformed
// version. It is fatal: the run never starts.
var ErrInvalidTrigger = errors.New("invalid trigger")

// versionPattern accepts semantic-version-like identifiers, with an
// optional leading "v" and optional pre-release/build suffix, e.g.
// "2.1.0", "v1.4.0-rc.1", "0.9.3+build.7".
var versionPattern = regexp.MustCompile(`^v?\d+\.\d+\.\d+(?:[-+][0-9A-Za-z][0-9A-Za-z.\-+]*)?$`)

// ValidatedRelease is the result of successful trigger validation.
type ValidatedRelease struct {
	// Version is the dispatched version identifier, verbatim.
	Version string
}

// Tag returns the release tag for this version. The dispatch contract
// uses the version verbatim, with no normalization.
func (v ValidatedRelease) Tag() string {
	return v.Version
}

// Listener validates dispatch events.
type Listener struct{}

// NewListener creates a Listener.
func NewListener() *Listener {
	return &Listener{}
}

// Receive validates the event and returns the release it identifies.
func (l *Listener) Receive(event model.DispatchEvent) (ValidatedRelease, error) {
	if event.Version == "" {
		return ValidatedRelease{}, fmt.Errorf("%w: version is empty", ErrInvalidTrigger)
	}
	if !versionPattern.MatchString(event.Version) {
		return ValidatedRelease{}, fmt.Errorf("%w: version %q is not a valid version tag", ErrInvalidTrigger, event.Version)
	}
	return ValidatedRelease{Version: event.Version}, nil
}
