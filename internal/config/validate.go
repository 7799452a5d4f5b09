package config

import (
	"errors"
	"fmt"
)

var subtitleStyles = map[string]struct{}{
	"netflix": {},
	"youtube": {},
	"minimal": {},
}

var watermarkPositions = map[string]struct{}{
	"top_left":     {},
	"top_right":    {},
	"bottom_left":  {},
	"bottom_right": {},
	"center":       {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLipsync(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.StorageDir == "" {
		return errors.New("paths.storage_dir must be set")
	}
	if c.Paths.InputsDir == "" {
		return errors.New("paths.inputs_dir must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if _, ok := subtitleStyles[c.Workflow.SubtitleStyle]; !ok {
		return fmt.Errorf("workflow.subtitle_style: unknown style %q", c.Workflow.SubtitleStyle)
	}
	if _, ok := watermarkPositions[c.Workflow.WatermarkPosition]; !ok {
		return fmt.Errorf("workflow.watermark_position: unknown position %q", c.Workflow.WatermarkPosition)
	}
	return nil
}

func (c *Config) validateLipsync() error {
	switch c.Lipsync.SyncMode {
	case "cut_off", "loop", "bounce":
		return nil
	default:
		return fmt.Errorf("lipsync.sync_mode: unsupported value %q", c.Lipsync.SyncMode)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
