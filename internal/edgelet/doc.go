// Package edgelet is the orchestration-facing client for the device runtime's
// management API. Every operation runs through a single execute path that
// retries transient failures with bounded exponential backoff, translates
// remote failures into *Error, and maps wire payloads to domain types.
//
// Module settings are decoded into caller-chosen types with the generic
// ListModules function; a module whose settings cannot be decoded yields a
// per-item *ExtractionError without failing the rest of the listing.
package edgelet
