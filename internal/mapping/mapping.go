// Package mapping converts between domain types and the management API's
// wire types. All functions are pure.
package mapping

import (
	"bytes"
	"sort"

	"github.com/seantiz/edgemgmt/internal/mgmtapi"
	"github.com/seantiz/edgemgmt/internal/model"
)

// ToWireModuleSpec converts a domain spec. Environment variables are emitted
// sorted by key so identical specs produce identical requests.
func ToWireModuleSpec(spec model.ModuleSpec) mgmtapi.ModuleSpec {
	return mgmtapi.ModuleSpec{
		Name: spec.Name,
		Type: spec.Type,
		Config: mgmtapi.Config{
			Settings: cloneRaw(spec.Settings),
			Env:      toEnvVars(spec.EnvironmentVariables),
		},
	}
}

// FromWireModuleSpec converts a wire spec back to the domain form. If a key
// repeats, the last value wins.
func FromWireModuleSpec(spec mgmtapi.ModuleSpec) model.ModuleSpec {
	return model.ModuleSpec{
		Name:                 spec.Name,
		Type:                 spec.Type,
		EnvironmentVariables: fromEnvVars(spec.Config.Env),
		Settings:             cloneRaw(spec.Config.Settings),
	}
}

func FromWireIdentity(id mgmtapi.Identity) model.Identity {
	return model.Identity{
		ModuleID:     id.ModuleID,
		GenerationID: id.GenerationID,
		ManagedBy:    id.ManagedBy,
	}
}

func ToWireIdentity(id model.Identity) mgmtapi.Identity {
	return mgmtapi.Identity{
		ModuleID:     id.ModuleID,
		GenerationID: id.GenerationID,
		ManagedBy:    id.ManagedBy,
	}
}

func FromWireSystemInfo(info mgmtapi.SystemInfo) model.SystemInfo {
	return model.SystemInfo{
		OSType:       info.OSType,
		Architecture: info.Architecture,
		Version:      info.Version,
	}
}

func ToWireSystemInfo(info model.SystemInfo) mgmtapi.SystemInfo {
	return mgmtapi.SystemInfo{
		OSType:       info.OSType,
		Architecture: info.Architecture,
		Version:      info.Version,
	}
}

func toEnvVars(env map[string]string) []mgmtapi.EnvVar {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vars := make([]mgmtapi.EnvVar, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, mgmtapi.EnvVar{Key: k, Value: env[k]})
	}
	return vars
}

func fromEnvVars(vars []mgmtapi.EnvVar) map[string]string {
	if len(vars) == 0 {
		return nil
	}
	env := make(map[string]string, len(vars))
	for _, v := range vars {
		env[v.Key] = v.Value
	}
	return env
}

// cloneRaw copies the settings document so callers never share a backing
// array with the request.
func cloneRaw(raw []byte) []byte {
	if raw == nil {
		return nil
	}
	return bytes.Clone(raw)
}
