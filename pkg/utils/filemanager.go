// =============================================================================
// SEPA Member Collection Exporter - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the exporter:
//   - Output directory management
//   - Unique output file naming
//   - Atomic-ish writes (temp file plus rename)
//
// Generated direct debit documents are uploaded to banking software by hand;
// a half-written file silently accepted by that software would be worse than
// no file, hence the write-then-rename strategy.
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles output file operations for the exporter.
type FileManager struct {
	// OutputDir is the directory where generated files are placed.
	OutputDir string
}

// NewFileManager creates a new FileManager for the given output directory.
func NewFileManager(outputDir string) *FileManager {
	return &FileManager{OutputDir: outputDir}
}

// EnsureDirectories creates the output directory if it does not exist.
func (fm *FileManager) EnsureDirectories() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// WriteOutput writes the given content to a uniquely named file in the output
// directory.
//
// PARAMETERS:
//   - nameFormat: The file name format, see GenerateOutputFileName.
//   - content: The bytes to write.
//
// RETURNS:
//   - The full path of the written file.
//   - An error if the directory or file cannot be written.
func (fm *FileManager) WriteOutput(nameFormat string, content []byte) (string, error) {
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}

	name := GenerateOutputFileName(nameFormat)
	path := filepath.Join(fm.OutputDir, name)

	// Write to a temp file first so a failed write never leaves a partial
	// document under the final name.
	temp, err := os.CreateTemp(fm.OutputDir, name+".tmp*")
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := temp.Write(content); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(temp.Name(), path); err != nil {
		os.Remove(temp.Name())
		return "", fmt.Errorf("failed to move output file into place: %w", err)
	}

	return path, nil
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//       {uuid}      - A random UUID
//       {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//       {date}      - Current date (YYYYMMDD)
//       {time}      - Current time (HHMMSS)
//
// RETURNS:
//   - The generated file name.
//
// EXAMPLE:
//   format: "sepa_{timestamp}_{uuid}.xml"
//   output: "sepa_20240115_143022_a1b2c3d4-e5f6-7890-abcd-ef1234567890.xml"
func GenerateOutputFileName(format string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

// FileExists reports whether the path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
