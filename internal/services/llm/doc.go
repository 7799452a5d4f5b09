// Package llm wraps an OpenAI-compatible chat completion API with optional
// inline image input, bounded retries, and JSON payload helpers.
//
// Every creative stage that needs a text or vision model (artwork design,
// quality checking, script writing, scenario production, title generation)
// goes through this client so prompt plumbing, auth, and retry behavior live
// in one place.
package llm
