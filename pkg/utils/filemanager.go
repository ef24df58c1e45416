// =============================================================================
// Subscription CSV Customiser - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a conversion on disk:
//   - Output file naming
//   - Input archival (moving a processed export aside)
//
// ARCHIVAL STRATEGY:
//   - The input file is moved to input_archive after successful processing
//     when archive_input is enabled
//   - A failed file remains in its original location
//   - Optional date-based subdirectories keep large archives browsable
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager archives processed input files.
type FileManager struct {
	// InputArchiveDir is the directory for archived input files.
	InputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2024/01/15/orders.csv
	UseTimestampSubdirs bool

	// now is replaced in tests.
	now func() time.Time
}

// NewFileManager creates a new FileManager archiving into inputArchiveDir.
func NewFileManager(inputArchiveDir string) *FileManager {
	return &FileManager{
		InputArchiveDir: inputArchiveDir,
		now:             time.Now,
	}
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory and returns
// the archived path. An existing archived file of the same name is
// replaced.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath := fm.getArchivePath(filePath)

	archiveDir := filepath.Dir(archivePath)
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// If rename fails (e.g., cross-device), try copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := fm.clock()
		return filepath.Join(
			fm.InputArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.InputArchiveDir, fileName)
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// OutputFileName builds the converted file name: prefix followed by the
// original base name. The extension is replaced by ext only when ext is set
// and differs from the original's, ignoring case.
//
// EXAMPLES:
//   OutputFileName("AUTO_CONVERTED_WEIGHT+IOSS_ADDED_", "orders.CSV", ".csv")
//   -> "AUTO_CONVERTED_WEIGHT+IOSS_ADDED_orders.CSV"
//   OutputFileName("AUTO_CONVERTED_WEIGHT+IOSS_ADDED_", "orders.csv", ".xlsx")
//   -> "AUTO_CONVERTED_WEIGHT+IOSS_ADDED_orders.xlsx"
func OutputFileName(prefix, original, ext string) string {
	base := filepath.Base(original)
	if base == "." || base == string(filepath.Separator) {
		base = "export"
	}
	if current := filepath.Ext(base); ext != "" && !strings.EqualFold(current, ext) {
		base = strings.TrimSuffix(base, current) + ext
	}
	return prefix + base
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
