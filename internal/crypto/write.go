package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/coldstack/privatechain-deploy/internal/model"
)

// secretsFileMode keeps the secrets file readable by the operator only.
const secretsFileMode = 0600

// FileExistsError is an error when file already exists and is not empty
type FileExistsError struct {
	Path string
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("file %s already exists and is not empty", e.Path)
}

// IsFileExistsError checks if error is FileExistsError
func IsFileExistsError(err error) bool {
	_, ok := err.(*FileExistsError)
	return ok
}

// WriteSecrets writes the secrets record to filePath as indented JSON with mode 0600.
// An existing non-empty file is never overwritten: secrets are generated once per network.
func WriteSecrets(filePath string, secrets *model.Secrets) (err error) {
	// Serialize to JSON
	fileData, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}
	defer clear(fileData) // wipe serialized mnemonics from memory

	// Create the file, or take over an empty one
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, secretsFileMode)
	if errors.Is(err, fs.ErrExist) {
		f, err = openEmpty(filePath)
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	// Write to file
	if _, err := f.Write(fileData); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// openEmpty opens an existing empty regular file for writing and restricts it to 0600.
// Size and mode are checked on the opened descriptor.
func openEmpty(filePath string) (*os.File, error) {
	f, err := os.OpenFile(filePath, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() || info.Size() > 0 {
		f.Close()
		return nil, &FileExistsError{Path: filePath}
	}

	if err := f.Chmod(secretsFileMode); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to restrict file mode: %w", err)
	}
	return f, nil
}
