// Package studio holds the creative roles of the pipeline: designing the
// artwork prompt, building and quality-checking the artwork, writing the
// narration script, and producing the generation scenario. Each role is a
// thin wrapper over the text and image model clients with its own prompt.
package studio
