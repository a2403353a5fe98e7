// Package exchange moves open and sealed boxes between the two parties of
// a vault transfer, over a shared directory or an S3-compatible bucket.
package exchange

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/filex"
	"github.com/dmitrijs2005/passkeeper/internal/vault/models"
)

// WriteOpenBox stores an open box at path and returns the file actually
// written. A directory path gets a generated transfer file name; a file
// path gets the open box extension if it is missing.
func WriteOpenBox(path string, box *models.OpenBox) (string, error) {
	return writeBox(path, common.OpenBoxFileExt, box)
}

// WriteSealedBox stores a sealed box at path and returns the file actually
// written.
func WriteSealedBox(path string, box *models.SealedBox) (string, error) {
	return writeBox(path, common.SealedBoxFileExt, box)
}

// LoadOpenBox reads and decodes an open box file.
func LoadOpenBox(path string) (*models.OpenBox, error) {
	var box models.OpenBox
	if err := loadBox(path, &box); err != nil {
		return nil, err
	}
	if len(box.PublicKey) == 0 {
		return nil, fmt.Errorf("open box %s has no public key", path)
	}
	return &box, nil
}

// LoadSealedBox reads and decodes a sealed box file.
func LoadSealedBox(path string) (*models.SealedBox, error) {
	var box models.SealedBox
	if err := loadBox(path, &box); err != nil {
		return nil, err
	}
	if len(box.EncryptedVault) == 0 || len(box.KeyDerivationSalt) == 0 {
		return nil, fmt.Errorf("sealed box %s is incomplete", path)
	}
	return &box, nil
}

func writeBox(path, ext string, box any) (string, error) {
	target, err := resolveTarget(path, ext)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(box)
	if err != nil {
		return "", fmt.Errorf("failed to encode box: %w", err)
	}

	// Box files carry key material or ciphertext; keep them private.
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	return target, nil
}

func loadBox(path string, box any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, box); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// resolveTarget turns the user-supplied path into a concrete file name with
// the right extension, creating the exchange directory if needed.
func resolveTarget(path, ext string) (string, error) {
	dir := filex.ExchangeDir(path)
	if err := filex.EnsureDir(dir); err != nil {
		return "", err
	}

	if filepath.Ext(path) == "" {
		return filepath.Join(path, TransferName()+ext), nil
	}
	if !strings.HasSuffix(path, ext) {
		return path + ext, nil
	}
	return path, nil
}

// TransferName generates a unique base name for one transfer's box files.
func TransferName() string {
	return "transfer-" + uuid.NewString()
}
