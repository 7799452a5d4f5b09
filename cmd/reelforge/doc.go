// Package main hosts the reelforge CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into pipeline
// runs: a single idea, a whole CSV batch, run history queries, readiness
// checks, and configuration scaffolding. It centralizes configuration
// resolution, service client construction, and structured logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
