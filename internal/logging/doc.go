// Package logging builds slog loggers for the pipeline and standardizes the
// structured fields stages emit.
//
// Two output formats are supported: a console handler that renders
// timestamp/level/component prefixes with key=value attributes, and a JSON
// handler for machine consumption. Context helpers carry run and stage
// identity so every log line produced inside a stage is attributable without
// threading attributes by hand.
//
// Obtain loggers through New or NewFromConfig and derive component loggers
// with NewComponentLogger so field names stay consistent across packages.
package logging
