package model

import (
	"encoding/json"
	"strings"
	"time"
)

// ModuleSpec is the desired state of a module as handed to the runtime.
// Settings is module-type specific and passed through untouched.
type ModuleSpec struct {
	Name                 string            `json:"name"`
	Type                 string            `json:"type"`
	EnvironmentVariables map[string]string `json:"env,omitempty"`
	Settings             json.RawMessage   `json:"settings,omitempty"`
}

// ModuleStatus is the runtime status of a module.
type ModuleStatus int

const (
	StatusUnknown ModuleStatus = iota
	StatusBackoff
	StatusRunning
	StatusUnhealthy
	StatusStopped
	StatusFailed
)

var statusNames = map[ModuleStatus]string{
	StatusUnknown:   "unknown",
	StatusBackoff:   "backoff",
	StatusRunning:   "running",
	StatusUnhealthy: "unhealthy",
	StatusStopped:   "stopped",
	StatusFailed:    "failed",
}

func (s ModuleStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[StatusUnknown]
}

// ParseModuleStatus matches s case-insensitively against the known statuses.
// The boolean is false when s is not recognized, in which case StatusUnknown
// is returned.
func ParseModuleStatus(s string) (ModuleStatus, bool) {
	s = strings.TrimSpace(s)
	for status, name := range statusNames {
		if strings.EqualFold(s, name) {
			return status, true
		}
	}
	return StatusUnknown, false
}

// MarshalText encodes the status as its lowercase name.
func (s ModuleStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name; unknown names become StatusUnknown.
func (s *ModuleStatus) UnmarshalText(b []byte) error {
	*s, _ = ParseModuleStatus(string(b))
	return nil
}

// validTransitions maps each status to the set of statuses it may move to
// through an explicit lifecycle command.
var validTransitions = map[ModuleStatus]map[ModuleStatus]bool{
	StatusUnknown: {
		StatusRunning: true,
	},
	StatusStopped: {
		StatusRunning: true,
	},
	StatusFailed: {
		StatusRunning: true,
	},
	StatusBackoff: {
		StatusRunning: true,
		StatusStopped: true,
	},
	StatusRunning: {
		StatusStopped:   true,
		StatusUnhealthy: true,
		StatusFailed:    true,
	},
	StatusUnhealthy: {
		StatusRunning: true,
		StatusStopped: true,
		StatusFailed:  true,
	},
}

// ValidTransition reports whether moving from one status to another is allowed.
func ValidTransition(from, to ModuleStatus) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// ModuleRuntimeInfo is the observed state of a module. Config holds the
// module settings decoded into a caller-chosen type.
type ModuleRuntimeInfo[T any] struct {
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Status      ModuleStatus `json:"status"`
	Description string       `json:"description,omitempty"`
	ExitCode    int64        `json:"exitCode"`
	StartTime   *time.Time   `json:"startTime,omitempty"`
	ExitTime    *time.Time   `json:"exitTime,omitempty"`
	Config      T            `json:"config"`
}

// SystemInfo describes the host the runtime is running on.
type SystemInfo struct {
	OSType       string `json:"osType"`
	Architecture string `json:"architecture"`
	Version      string `json:"version"`
}
