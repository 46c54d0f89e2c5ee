package corestate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const readmeContent = ` - - - - ! DO NOT MODIFY THIS DIRECTORY ! - - - -
This directory contains the unique node identifier stored in the file named data.
The identifier names the node in logs, in run.lock and in node.info replies.
Deleting it makes the node generate a new identity on the next start.`

// GetNodeUUID reads the identifier stored under metaInfPath.
// The path must point at the "uuid" directory, not at the data file inside it.
func GetNodeUUID(metaInfPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(metaInfPath, "data"))
	if err != nil {
		return "", err
	}
	id, err := uuid.ParseBytes(data)
	if err != nil {
		return "", fmt.Errorf("stored node uuid is corrupted: %w", err)
	}
	return id.String(), nil
}

// SetNodeUUID replaces the directory at metaInfPath with a freshly
// generated identifier.
func SetNodeUUID(metaInfPath string) error {
	if !strings.HasSuffix(metaInfPath, "uuid") {
		return errors.New("invalid meta/uuid path")
	}
	info, err := os.Stat(metaInfPath)
	if err == nil && info.IsDir() {
		if err := os.RemoveAll(metaInfPath); err != nil {
			return err
		}
	} else if err != nil && !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(metaInfPath, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(metaInfPath, "data"), []byte(uuid.NewString()), 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(metaInfPath, "README.txt"), []byte(readmeContent), 0644)
}
