package preflight

import (
	"context"

	"reelforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks for optional features are only run when the feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Storage directory", cfg.Paths.StorageDir))
	results = append(results, CheckDirectoryAccess("Inputs directory", cfg.Paths.InputsDir))

	results = append(results, CheckKey("Text model key", cfg.LLM.APIKey))
	results = append(results, CheckKey("Image model key", cfg.ImageGen.APIKey))
	results = append(results, CheckKey("Speech key", cfg.Speech.APIKey))
	results = append(results, CheckKey("Lip-sync key", cfg.Lipsync.APIKey))
	results = append(results, checkProviderKeys(cfg))

	results = append(results, CheckLLM(ctx, cfg))

	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Command}
		if !status.Available {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}

	return results
}

// checkProviderKeys passes when at least one video provider is usable.
// The scenario chooses the provider at run time, so a single configured
// backend is enough to proceed.
func checkProviderKeys(cfg *config.Config) Result {
	const name = "Video provider keys"
	kling := cfg.Kling.AccessKey != "" && cfg.Kling.SecretKey != ""
	runway := cfg.Runway.APIKey != ""
	switch {
	case kling && runway:
		return Result{Name: name, Passed: true, Detail: "kling and runway configured"}
	case kling:
		return Result{Name: name, Passed: true, Detail: "kling configured"}
	case runway:
		return Result{Name: name, Passed: true, Detail: "runway configured"}
	default:
		return Result{Name: name, Detail: "no video provider configured"}
	}
}
