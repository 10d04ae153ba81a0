package protocol

import (
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
)

// Supported protocol versions, in the order spec.md §6 lists them.
// LatestVersion is the newest version this SDK recognizes; DefaultVersion
// is the one negotiated when a client's requested version is unsupported.
const (
	Version20250618 = "2025-06-18"
	Version20250326  = "2025-03-26"
	Version20241105  = "2024-11-05"
	Version20241007  = "2024-10-07"

	LatestVersion  = Version20250618
	DefaultVersion = Version20250326
)

// SupportedVersions is the ordered set of protocol versions this SDK
// recognizes, newest first.
var SupportedVersions = []string{
	Version20250618,
	Version20250326,
	Version20241105,
	Version20241007,
}

// IsSupportedVersion reports whether v is one of SupportedVersions.
func IsSupportedVersion(v string) bool {
	for _, sv := range SupportedVersions {
		if sv == v {
			return true
		}
	}
	return false
}

// NegotiateVersion implements the handshake rule from spec.md §4.7: echo the
// client's requested version if supported, otherwise fall back to
// DefaultVersion.
func NegotiateVersion(requested string) string {
	if IsSupportedVersion(requested) {
		return requested
	}
	return DefaultVersion
}

// ValidateVersionFormat checks that v is a date-shaped string (YYYY-MM-DD),
// using strfmt's date validator rather than a hand-rolled regexp — this is
// the one place the wire protocol itself depends on a date shape, so it
// gets the same format-validation library the rest of the auth/resource
// surface uses for URIs.
func ValidateVersionFormat(v string) error {
	const layout = "2006-01-02"
	if _, err := time.Parse(layout, v); err != nil {
		return fmt.Errorf("protocol: %q is not a date-shaped protocol version: %w", v, err)
	}
	// strfmt.IsDate performs the same check through the format-validation
	// library so callers that already validate other fields with strfmt
	// (resource URIs, elicitation hints) get a single consistent dependency.
	if !strfmt.IsDate(v) {
		return fmt.Errorf("protocol: %q failed strfmt date validation", v)
	}
	return nil
}
