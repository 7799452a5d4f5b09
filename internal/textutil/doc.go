// Package textutil provides small text helpers for naming run artifacts.
//
// SanitizeToken turns free-form idea names into filesystem-safe tokens used
// in project directory names. DisplayTitle and Truncate shape raw idea text
// into presentable titles for the branding overlay and CLI output.
package textutil
