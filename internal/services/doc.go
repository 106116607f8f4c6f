// Package services defines the error taxonomy and context conventions shared
// by pipeline stages and their external generation service clients.
//
// Stage code wraps failures with the exported sentinel errors so callers can
// classify outcomes with errors.Is without inspecting message text. The
// context helpers carry session and stage identity down into service clients
// so log lines stay correlated across the pipeline.
package services
