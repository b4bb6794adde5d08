package api

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const callIDPrefix = "call_"

var callIDPattern = regexp.MustCompile(`^call_[0-9a-f]{32}$`)

// NewCallID generates a CallLog ID: "call_" followed by a random UUID in
// compact hex form.
func NewCallID() string {
	return callIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidateCallID reports whether id has the form produced by NewCallID.
func ValidateCallID(id string) bool {
	return callIDPattern.MatchString(id)
}

// NewExperimentID generates an experiment identifier for runs started
// without one, e.g. "exp-20250101-150405-1a2b3c4d".
func NewExperimentID(now time.Time) string {
	return "exp-" + now.UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
}
