package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Remote remembers which daemon `cashflow remote` commands talk to.
type Remote struct {
	Addr string `json:"addr"`
}

func remotePath(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "remote.json"), nil
}

func SaveRemote(dataDir string, r Remote) error {
	path, err := remotePath(dataDir)
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o600)
}

func LoadRemote(dataDir string) (Remote, error) {
	path, err := remotePath(dataDir)
	if err != nil {
		return Remote{}, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return Remote{}, err
	}
	var r Remote
	if err := json.Unmarshal(body, &r); err != nil {
		return Remote{}, err
	}
	if strings.TrimSpace(r.Addr) == "" {
		return Remote{}, fmt.Errorf("no daemon address saved")
	}
	return r, nil
}

func ClearRemote(dataDir string) error {
	path, err := remotePath(dataDir)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return os.Remove(path)
}
