// Package preflight provides readiness checks for the external services
// and filesystem paths a pipeline run depends on.
//
// The CLI "reelforge health" command runs RunAll before any batch is
// started, so a missing API key or an unwritable storage directory is
// reported up front instead of minutes into a run.
package preflight
