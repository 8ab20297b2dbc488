package mgmtapi

import (
	"encoding/json"
	"time"
)

// VersionParam is the query parameter carrying the API version on every request.
const VersionParam = "api-version"

type IdentitySpec struct {
	ModuleID  string `json:"moduleId"`
	ManagedBy string `json:"managedBy,omitempty"`
}

type UpdateIdentity struct {
	GenerationID string `json:"generationId"`
	ManagedBy    string `json:"managedBy,omitempty"`
}

type Identity struct {
	ModuleID     string `json:"moduleId"`
	ManagedBy    string `json:"managedBy"`
	GenerationID string `json:"generationId"`
	AuthType     string `json:"authType,omitempty"`
}

type IdentityList struct {
	Identities []Identity `json:"identities"`
}

type EnvVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Config carries the module-type specific settings document verbatim.
type Config struct {
	Settings json.RawMessage `json:"settings,omitempty"`
	Env      []EnvVar        `json:"env,omitempty"`
}

type ModuleSpec struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Config Config `json:"config"`
}

type ExitStatus struct {
	ExitTime   time.Time `json:"exitTime"`
	StatusCode string    `json:"statusCode"`
}

type RuntimeStatus struct {
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

type Status struct {
	StartTime     *time.Time     `json:"startTime,omitempty"`
	ExitStatus    *ExitStatus    `json:"exitStatus,omitempty"`
	RuntimeStatus *RuntimeStatus `json:"runtimeStatus,omitempty"`
}

type ModuleDetails struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Config Config  `json:"config"`
	Status *Status `json:"status,omitempty"`
}

type ModuleList struct {
	Modules []ModuleDetails `json:"modules"`
}

type SystemInfo struct {
	OSType       string `json:"osType"`
	Architecture string `json:"architecture"`
	Version      string `json:"version"`
}

// ErrorResponse is the structured error body returned by the runtime.
type ErrorResponse struct {
	Message string `json:"message"`
}
