// Package workenv provides staleness checks for staged convert output.
package workenv

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// StagingMarker records which conversion produced a staging directory's
// contents, so a later CLI invocation over the same input and checksum can
// skip re-decoding it.
type StagingMarker struct {
	Timestamp  time.Time `json:"timestamp"`
	SourcePath string    `json:"source_path"`
	Checksum   string    `json:"checksum"`
}

// IsValid reports whether the staging directory at path still matches
// sourcePath/checksum and has not expired.
func IsValid(path string, sourcePath, checksum string) bool {
	markerPath := filepath.Join(path, ".staging.complete")

	data, err := os.ReadFile(markerPath)
	if err != nil {
		return false
	}

	var marker StagingMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return false
	}

	if marker.SourcePath != sourcePath {
		return false
	}
	if checksum != "" && marker.Checksum != checksum {
		return false
	}
	if time.Since(marker.Timestamp) > 24*time.Hour {
		return false
	}

	return true
}

// MarkComplete records that path now holds a finished, reusable staging of
// sourcePath at the given checksum.
func MarkComplete(path string, sourcePath, checksum string) error {
	markerPath := filepath.Join(path, ".staging.complete")

	marker := StagingMarker{
		Timestamp:  time.Now(),
		SourcePath: sourcePath,
		Checksum:   checksum,
	}

	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(markerPath, data, 0644)
}

// MarkIncomplete records why a staging attempt failed, clearing any prior
// complete marker so IsValid rejects the directory.
func MarkIncomplete(path string, reason string) error {
	markerPath := filepath.Join(path, ".staging.incomplete")

	marker := map[string]interface{}{
		"timestamp": time.Now(),
		"reason":    reason,
	}

	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return err
	}

	os.Remove(filepath.Join(path, ".staging.complete"))

	return os.WriteFile(markerPath, data, 0644)
}

// Clean removes a staging directory's markers, leaving any staged files in
// place for the caller to remove separately.
func Clean(path string) error {
	os.Remove(filepath.Join(path, ".staging.incomplete"))
	os.Remove(filepath.Join(path, ".staging.complete"))
	return nil
}
