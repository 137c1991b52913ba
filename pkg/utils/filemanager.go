// =============================================================================
// aqtools - File Manager Utility
// =============================================================================
//
// This module provides file utilities shared by the commands:
//   - Directory management
//   - Input format detection
//   - Output file naming
//   - Run summary logs
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates dir and its parents if they don't exist.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	return EnsureDir(filepath.Dir(path))
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// IsXLSX reports whether path names an Excel workbook.
func IsXLSX(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	default:
		return false
	}
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {command}   - The command that ran, via params
//   - params: A map of extra placeholder values.
//
// EXAMPLE:
//   format: "{command}_summary_{timestamp}_{uuid}.txt"
//   params: {"command": "encode"}
//   output: "encode_summary_20240115_143022_a1b2c3d4-e5f6-7890-abcd-ef1234567890.txt"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}

	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return result
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about one command run.
type RunSummary struct {
	Command   string
	StartTime time.Time
	EndTime   time.Time

	// Inputs and Outputs list the files read and written.
	Inputs  []string
	Outputs []string

	// Counters holds named counts in display order.
	Counters []Counter

	// Warnings lists non-fatal findings.
	Warnings []string

	// Err is the error the run ended with, if any.
	Err error
}

// Counter is a named count shown in a run summary.
type Counter struct {
	Name  string
	Value int
}

// AddCounter appends a named count.
func (s *RunSummary) AddCounter(name string, value int) {
	s.Counters = append(s.Counters, Counter{Name: name, Value: value})
}

// WriteSummaryLog writes a run summary to a new file in outputDir, named
// after format.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, outputDir, format string) (string, error) {
	if err := EnsureDir(outputDir); err != nil {
		return "", err
	}

	name := GenerateOutputFileName(format, map[string]string{"command": summary.Command})
	summaryPath := filepath.Join(outputDir, name)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	status := "success"
	if summary.Err != nil {
		status = "failed"
	}

	fmt.Fprintf(writer, "aqtools %s - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Status:         %s\n\n",
		summary.Command,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		status)

	if len(summary.Inputs) > 0 || len(summary.Outputs) > 0 {
		writer.WriteString("Files:\n")
		for _, in := range summary.Inputs {
			fmt.Fprintf(writer, "  Input:  %s\n", in)
		}
		for _, out := range summary.Outputs {
			fmt.Fprintf(writer, "  Output: %s\n", out)
		}
		writer.WriteString("\n")
	}

	if len(summary.Counters) > 0 {
		writer.WriteString("Statistics:\n")
		for _, c := range summary.Counters {
			fmt.Fprintf(writer, "  %-22s %d\n", c.Name+":", c.Value)
		}
		writer.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		writer.WriteString("Warnings:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(writer, "  %s\n", w)
		}
		writer.WriteString("\n")
	}

	if summary.Err != nil {
		fmt.Fprintf(writer, "Error:\n  %s\n\n", summary.Err)
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}
