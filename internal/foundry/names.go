package foundry

import (
	"regexp"
	"strings"
	"time"
)

// timestampLayout matches spec_timestamp() in the upstream reference:
// UTC, second resolution, "YYYYMMDD_HHMMSS".
const timestampLayout = "20060102_150405"

// timestampLen is the fixed length of "YYYYMMDD_HHMMSS" (8+1+6).
const timestampLen = len(timestampLayout)

// prefixLen additionally accounts for the separator between the timestamp
// and the feature name; the feature name is recoverable by slicing past it.
const prefixLen = timestampLen + 1

var featureNameRe = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

// specNameRe is the wire-level grammar for a canonical spec name.
var specNameRe = regexp.MustCompile(`^([0-9]{8}_[0-9]{6})_([a-z0-9]+(?:_[a-z0-9]+)*)$`)

// projectNameRe bans path separators and other filesystem-hostile characters.
var projectNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _.-]{0,99}$`)

var reservedDeviceNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
}

// ValidateProjectName enforces §3's project-name invariants: non-empty,
// at most 100 characters, no filesystem-reserved characters, not a
// reserved device name.
func ValidateProjectName(name string) error {
	if name == "" {
		return InvalidInput("project name cannot be empty")
	}
	if len(name) > 100 {
		return InvalidInput("project name must be at most 100 characters")
	}
	if !projectNameRe.MatchString(name) {
		return InvalidInput("project name %q contains characters that are not safe in a path", name)
	}
	if reservedDeviceNames[strings.ToLower(name)] {
		return InvalidInput("project name %q is a reserved device name", name)
	}
	return nil
}

// ValidateFeatureName enforces the snake-case grammar for the suffix of a
// spec name: lowercase ASCII letters/digits/underscores, non-empty, no
// leading/trailing/double underscore.
func ValidateFeatureName(feature string) error {
	if feature == "" {
		return InvalidInput("feature name cannot be empty")
	}
	if !featureNameRe.MatchString(feature) {
		return InvalidInput("feature name %q must be lowercase snake_case with no leading, trailing, or doubled underscores", feature)
	}
	return nil
}

// GenerateSpecName composes the current UTC timestamp with feature into a
// canonical spec name. Callers creating multiple specs for the same project
// within the same second are responsible for serialising those calls; see
// §9 Open Question (b).
func GenerateSpecName(feature string, now time.Time) (string, error) {
	if err := ValidateFeatureName(feature); err != nil {
		return "", err
	}
	return now.UTC().Format(timestampLayout) + "_" + feature, nil
}

// ValidateSpecName parses and validates a canonical spec name against the
// timestamp_feature grammar.
func ValidateSpecName(name string) error {
	m := specNameRe.FindStringSubmatch(name)
	if m == nil {
		return InvalidInput("spec name %q does not match YYYYMMDD_HHMMSS_<feature>", name)
	}
	if _, err := time.Parse(timestampLayout, m[1]); err != nil {
		return InvalidInput("spec name %q has an invalid timestamp: %v", name, err)
	}
	return ValidateFeatureName(m[2])
}

// ExtractFeatureName recovers the feature suffix by stripping the fixed
// 15-character timestamp plus its separator, per §3's invariant. It assumes
// name has already passed ValidateSpecName.
func ExtractFeatureName(name string) string {
	if len(name) <= prefixLen {
		return ""
	}
	return name[prefixLen:]
}

// ExtractCreatedAt recovers the creation timestamp embedded in a canonical
// spec name.
func ExtractCreatedAt(name string) (time.Time, bool) {
	if len(name) < timestampLen {
		return time.Time{}, false
	}
	t, err := time.Parse(timestampLayout, name[:timestampLen])
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
