// Package mgmtapi holds the wire contract of the runtime's management API and
// a thin HTTP transport for it. Types mirror the JSON exchanged on the wire;
// nothing here knows about retries or domain types.
package mgmtapi
