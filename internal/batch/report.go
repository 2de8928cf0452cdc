package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"p3d-mipgen/internal/mipmap"
)

// Status is the outcome for one texture.
type Status string

const (
	StatusSkipped Status = "skipped"
	StatusRebuilt Status = "rebuilt"
	StatusFailed  Status = "failed"
)

// TextureResult holds the outcome of processing one texture.
type TextureResult struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	FromLevels int    `json:"from_levels"`
	ToLevels   int    `json:"to_levels,omitempty"`
	Shaders    int    `json:"shaders"`
}

func (r *TextureResult) skip(reason mipmap.Reason, target int) {
	r.Status = StatusSkipped
	r.Reason = reason.String()
	r.ToLevels = target
}

// Report summarizes a run.
type Report struct {
	Textures       []TextureResult `json:"textures"`
	ShadersUpdated bool            `json:"shaders_updated"`
	Changed        bool            `json:"changed"`
	HistoryWritten bool            `json:"history_written"`
	Elapsed        time.Duration   `json:"elapsed_ns"`
}

// Count returns how many textures ended with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, t := range r.Textures {
		if t.Status == s {
			n++
		}
	}
	return n
}

// WriteReport writes the report as indented JSON.
func WriteReport(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("batch: encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("batch: write report %s: %w", path, err)
	}
	return nil
}
