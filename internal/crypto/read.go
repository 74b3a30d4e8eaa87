package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/coldstack/privatechain-deploy/internal/model"
)

// ReadSecrets reads the secrets record from filePath.
// Strings are returned exactly as stored.
func ReadSecrets(filePath string) (*model.Secrets, error) {
	// Check if file exists
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("secrets file %s does not exist", filePath)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Check that file is not empty
	if fileInfo.Size() == 0 {
		return nil, errors.New("secrets file is empty")
	}

	// Read file
	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer clear(fileData)

	// Skip UTF-8 BOM if present
	if len(fileData) >= 3 && fileData[0] == 0xEF && fileData[1] == 0xBB && fileData[2] == 0xBF {
		fileData = fileData[3:]
	}

	var secrets model.Secrets
	if err := json.Unmarshal(fileData, &secrets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal secrets file: %w", err)
	}

	if err := validateSecrets(&secrets); err != nil {
		return nil, fmt.Errorf("invalid secrets file %s: %w", filePath, err)
	}

	return &secrets, nil
}

func validateSecrets(s *model.Secrets) error {
	if s.Sudo == "" {
		return errors.New("sudo mnemonic is missing")
	}
	if s.Admin == "" {
		return errors.New("admin mnemonic is missing")
	}
	if s.NodeKey == "" || s.PeerID == "" {
		return errors.New("nodekey and peer_id are required")
	}
	for i, a := range s.Authorities {
		if a == "" {
			return fmt.Errorf("authority %d is empty", i)
		}
	}
	return nil
}
