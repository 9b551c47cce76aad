// Package identifier parses and compares participant identifiers.
//
// A participant identifier is a scheme and a value, written "scheme::value". The
// Factory owns all normalization so that identifiers built from a URL path and from
// a payload compare equal when they denote the same participant.
package identifier

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// SchemeSeparator separates scheme and value in the textual form.
	SchemeSeparator = "::"

	// DefaultScheme is the PEPPOL participant identifier scheme.
	DefaultScheme = "iso6523-actorid-upis"

	maxSchemeLength = 25
	maxValueLength  = 50
)

var schemePattern = regexp.MustCompile(`^[a-z0-9]+-actorid-[a-z0-9]+$`)

// ParticipantID is an immutable, normalized participant identifier.
// The zero value is not a valid identifier.
type ParticipantID struct {
	scheme string
	value  string
}

func (p ParticipantID) Scheme() string { return p.scheme }
func (p ParticipantID) Value() string  { return p.value }

// IsZero reports whether p was never constructed by a Factory.
func (p ParticipantID) IsZero() bool { return p.scheme == "" && p.value == "" }

// String returns the canonical "scheme::value" form. It doubles as the storage key.
func (p ParticipantID) String() string {
	return p.scheme + SchemeSeparator + p.value
}

// URIEncoded returns the canonical form percent-encoded for use in a URL path segment.
func (p ParticipantID) URIEncoded() string {
	return url.PathEscape(p.String())
}

// HasSameContent reports whether both identifiers denote the same participant.
func (p ParticipantID) HasSameContent(other ParticipantID) bool {
	return p.scheme == other.scheme && p.value == other.value
}

// Factory builds participant identifiers.
type Factory struct {
	defaultScheme          string
	caseInsensitiveSchemes map[string]struct{}
}

// Option configures a Factory.
type Option func(*Factory)

// WithDefaultScheme makes Parse accept bare values ("9906:abc") under scheme.
// An empty scheme requires every key to carry its scheme.
func WithDefaultScheme(scheme string) Option {
	return func(f *Factory) {
		f.defaultScheme = strings.ToLower(strings.TrimSpace(scheme))
	}
}

// NewFactory returns a Factory treating the PEPPOL scheme as case-insensitive.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		caseInsensitiveSchemes: map[string]struct{}{DefaultScheme: {}},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Parse parses the textual form. It reports false for malformed input and never panics.
func (f *Factory) Parse(s string) (ParticipantID, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ParticipantID{}, false
	}
	scheme, value, found := strings.Cut(s, SchemeSeparator)
	if !found {
		if f.defaultScheme == "" {
			return ParticipantID{}, false
		}
		scheme, value = f.defaultScheme, s
	}
	pid, err := f.Create(scheme, value)
	if err != nil {
		return ParticipantID{}, false
	}
	return pid, true
}

// Create builds an identifier from its parts, normalizing them the same way Parse does.
func (f *Factory) Create(scheme, value string) (ParticipantID, error) {
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	if scheme == "" {
		return ParticipantID{}, fmt.Errorf("participant identifier scheme is required")
	}
	if len(scheme) > maxSchemeLength {
		return ParticipantID{}, fmt.Errorf("participant identifier scheme %q exceeds %d characters", scheme, maxSchemeLength)
	}
	if !schemePattern.MatchString(scheme) {
		return ParticipantID{}, fmt.Errorf("participant identifier scheme %q is not a valid actor id scheme", scheme)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return ParticipantID{}, fmt.Errorf("participant identifier value is required")
	}
	// Lower-casing rewrites invalid bytes to U+FFFD, which would merge distinct keys.
	if !utf8.ValidString(value) {
		return ParticipantID{}, fmt.Errorf("participant identifier value is not valid UTF-8")
	}
	if len(value) > maxValueLength {
		return ParticipantID{}, fmt.Errorf("participant identifier value exceeds %d characters", maxValueLength)
	}
	if strings.Contains(value, SchemeSeparator) {
		return ParticipantID{}, fmt.Errorf("participant identifier value must not contain %q", SchemeSeparator)
	}
	for _, r := range value {
		if !unicode.IsPrint(r) {
			return ParticipantID{}, fmt.Errorf("participant identifier value contains a non-printable character")
		}
	}
	if _, ok := f.caseInsensitiveSchemes[scheme]; ok {
		value = strings.ToLower(value)
	}
	return ParticipantID{scheme: scheme, value: value}, nil
}
