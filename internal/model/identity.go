package model

import "github.com/oklog/ulid/v2"

// Identity is the security principal the runtime provisions for one module.
type Identity struct {
	ModuleID     string `json:"moduleId"`
	GenerationID string `json:"generationId"`
	ManagedBy    string `json:"managedBy"`
}

// NewGenerationID returns a fresh ULID. The runtime assigns a new one every
// time an identity is created or updated.
func NewGenerationID() string {
	return ulid.Make().String()
}
