package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apierrors "spcpulse/internal/errors"
)

// DefaultMaxFileBytes bounds a data file read by the offline tools.
const DefaultMaxFileBytes int64 = 32 << 20

// FileValidator checks data files and report destinations before any
// parsing or writing happens.
type FileValidator struct {
	logger     *slog.Logger
	maxBytes   int64
	extensions []string
}

// NewFileValidator creates a validator accepting the given extensions
// (lower case, with dot). maxBytes <= 0 uses DefaultMaxFileBytes.
func NewFileValidator(logger *slog.Logger, maxBytes int64, extensions ...string) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	return &FileValidator{
		logger:     logger,
		maxBytes:   maxBytes,
		extensions: extensions,
	}
}

// ValidateDataFile checks that path is a readable regular file with a
// supported extension, no larger than the size bound, and not an Excel lock
// file.
func (v *FileValidator) ValidateDataFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Data file does not exist", slog.String("file", path))
		return apierrors.NewNotFoundError(fmt.Sprintf("data file %s", path))
	}
	if err != nil {
		return apierrors.NewStorageError(fmt.Sprintf("failed to stat %s", path), err)
	}
	if info.IsDir() {
		return apierrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Skipping temporary Excel file", slog.String("file", path))
		return apierrors.NewAppValidationError(fmt.Sprintf("%s is a temporary Excel file", base))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !v.supported(ext) {
		return apierrors.NewUnsupportedError(fmt.Sprintf("unsupported file format %q", ext)).
			WithContext("supported", v.extensions)
	}

	if info.Size() > v.maxBytes {
		return apierrors.NewAppValidationError(
			fmt.Sprintf("%s is %d bytes, larger than the %d byte limit", base, info.Size(), v.maxBytes))
	}

	file, err := os.Open(path)
	if err != nil {
		return apierrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("Data file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputPath makes sure the directory of path exists and is writable.
// An empty path means stdout and always passes.
func (v *FileValidator) ValidateOutputPath(path string) error {
	if path == "" {
		return nil
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return apierrors.NewAppValidationError(fmt.Sprintf("output %s is a directory", path))
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apierrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	probe, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		return apierrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output path validated", slog.String("file", path))
	return nil
}

func (v *FileValidator) supported(ext string) bool {
	if len(v.extensions) == 0 {
		return true
	}
	for _, e := range v.extensions {
		if e == ext {
			return true
		}
	}
	return false
}
