// Package assess holds the per-chapter compliance state of an assessment
// and projects it into findings.
package assess

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// Verdict is the compliance status of a chapter.
type Verdict int

const (
	Unknown Verdict = iota
	Implemented
	NotImplemented
	PartiallyImplemented
)

var verdictNames = map[Verdict]string{
	Unknown:              "unknown",
	Implemented:          "implemented",
	NotImplemented:       "not_implemented",
	PartiallyImplemented: "partially_implemented",
}

func (v Verdict) String() string {
	if s, ok := verdictNames[v]; ok {
		return s
	}
	return verdictNames[Unknown]
}

// Propagates reports whether recording v pushes it to unanswered
// descendants. A partial implementation says nothing about sub-controls.
func (v Verdict) Propagates() bool {
	return v != PartiallyImplemented
}

// NeedsRemediation reports whether a chapter with this verdict is a finding.
func (v Verdict) NeedsRemediation() bool {
	return v == Unknown || v == NotImplemented
}

// ParseVerdict normalises user input. The numeric answers follow the
// questionnaire (1 unknown, 2 implemented, 3 not implemented, 4 partial).
// Anything unrecognised is Unknown.
func ParseVerdict(s string) Verdict {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	switch key {
	case "2", "implemented", "yes":
		return Implemented
	case "3", "notimplemented", "no":
		return NotImplemented
	case "4", "partiallyimplemented", "partial", "partially":
		return PartiallyImplemented
	default:
		return Unknown
	}
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Verdict) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Bare numbers use the questionnaire numbering.
		s = string(data)
	}
	*v = ParseVerdict(s)
	return nil
}

func (v Verdict) MarshalYAML() (any, error) {
	return v.String(), nil
}

func (v *Verdict) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	*v = ParseVerdict(s)
	return nil
}
