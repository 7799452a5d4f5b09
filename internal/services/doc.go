// Package services holds cross-cutting helpers shared by the external
// provider clients: sentinel error markers with stage/operation wrapping, and
// context annotations that carry run, stage, and request identity through
// blocking provider calls.
//
// The concrete clients live in subpackages (llm, imagegen, speech,
// transcribe, kling, runway, lipsync, filehost); each wraps one external
// service and reports failures using the sentinels defined here so the
// pipeline can classify them uniformly.
package services
