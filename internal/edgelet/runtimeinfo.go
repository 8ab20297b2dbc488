package edgelet

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/seantiz/edgemgmt/internal/mgmtapi"
	"github.com/seantiz/edgemgmt/internal/model"
)

// RawModuleInfo is a module's runtime info with its settings not yet decoded.
type RawModuleInfo = model.ModuleRuntimeInfo[json.RawMessage]

// ModuleResult is one entry of a typed module listing. Exactly one of Info
// and Err is meaningful.
type ModuleResult[T any] struct {
	Info model.ModuleRuntimeInfo[T]
	Err  error
}

// ListModules lists the modules known to the runtime and decodes each one's
// settings into T. Transport failures fail the whole call; a module whose
// settings do not decode gets an *ExtractionError in its own entry.
func ListModules[T any](ctx context.Context, m Manager) ([]ModuleResult[T], error) {
	raw, err := m.ListModules(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]ModuleResult[T], 0, len(raw))
	for _, r := range raw {
		info, err := DecodeConfig[T](r)
		results = append(results, ModuleResult[T]{Info: info, Err: err})
	}
	return results, nil
}

// DecodeConfig decodes raw's settings into T. The settings must be a JSON
// object; anything else is an *ExtractionError and the returned info is zero.
func DecodeConfig[T any](raw RawModuleInfo) (model.ModuleRuntimeInfo[T], error) {
	if kind := jsonKind(raw.Config); kind != "object" {
		return model.ModuleRuntimeInfo[T]{}, &ExtractionError{Module: raw.Name, Kind: kind}
	}

	var cfg T
	if err := json.Unmarshal(raw.Config, &cfg); err != nil {
		return model.ModuleRuntimeInfo[T]{}, &ExtractionError{Module: raw.Name, Kind: "object", Err: err}
	}

	return model.ModuleRuntimeInfo[T]{
		Name:        raw.Name,
		Type:        raw.Type,
		Status:      raw.Status,
		Description: raw.Description,
		ExitCode:    raw.ExitCode,
		StartTime:   raw.StartTime,
		ExitTime:    raw.ExitTime,
		Config:      cfg,
	}, nil
}

// extractRuntimeInfo derives the status fields of a wire module payload.
// Missing or unparseable values fall back to defaults rather than failing.
func extractRuntimeInfo(d mgmtapi.ModuleDetails) RawModuleInfo {
	info := RawModuleInfo{
		Name:   d.Name,
		Type:   d.Type,
		Status: model.StatusUnknown,
		Config: d.Config.Settings,
	}
	if d.Status == nil {
		return info
	}

	if es := d.Status.ExitStatus; es != nil {
		if code, err := strconv.ParseInt(strings.TrimSpace(es.StatusCode), 10, 64); err == nil {
			info.ExitCode = code
		}
		exitTime := es.ExitTime
		info.ExitTime = &exitTime
	}

	if d.Status.StartTime != nil {
		startTime := *d.Status.StartTime
		info.StartTime = &startTime
	}

	if rs := d.Status.RuntimeStatus; rs != nil {
		info.Status, _ = model.ParseModuleStatus(rs.Status)
		info.Description = rs.Description
	}

	return info
}

// jsonKind names the kind of JSON value in raw.
func jsonKind(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "missing"
	}
	switch trimmed[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
