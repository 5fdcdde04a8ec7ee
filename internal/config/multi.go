package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoConfig means no profile has been selected yet; callers fall back to
// the in-memory defaults.
var ErrNoConfig = errors.New("no config selected")

// Profiles live under the user config root: one YAML per label in configs/,
// plus a current_config file naming the active label.

func ConfigRoot() string {
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "mangasrc")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mangasrc")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mangasrc")
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

func ensureDirs() error {
	return os.MkdirAll(ConfigsDir(), 0755)
}

func labelPath(label string) (string, error) {
	if strings.TrimSpace(label) == "" {
		return "", errors.New("label cannot be empty")
	}
	return filepath.Join(ConfigsDir(), label+".yaml"), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CurrentLabel reads the active profile label.
func CurrentLabel() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	b, err := os.ReadFile(CurrentLabelFile())
	if os.IsNotExist(err) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

func setCurrentLabel(label string) error {
	return os.WriteFile(CurrentLabelFile(), []byte(label), 0644)
}

// ActiveConfigPath resolves the active profile to its YAML path.
func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil || label == "" {
		return "", ErrNoConfig
	}
	return labelPath(label)
}

// ConfigPathByLabel resolves a label to its YAML path, failing when the
// profile does not exist.
func ConfigPathByLabel(label string) (string, error) {
	path, err := labelPath(label)
	if err != nil {
		return "", err
	}
	if !exists(path) {
		return "", fmt.Errorf("config %q does not exist", label)
	}
	return path, nil
}

type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
}

func ListConfigs() ([]ConfigInfo, error) {
	if err := ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	active, _ := CurrentLabel()

	var out []ConfigInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}

		label := strings.TrimSuffix(e.Name(), ".yaml")
		out = append(out, ConfigInfo{
			Label:  label,
			Path:   filepath.Join(ConfigsDir(), e.Name()),
			Active: label == active,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func SwitchConfig(label string) error {
	if err := ensureDirs(); err != nil {
		return err
	}

	path, err := labelPath(label)
	if err != nil {
		return err
	}
	if !exists(path) {
		return fmt.Errorf("config %q does not exist", label)
	}

	return setCurrentLabel(label)
}

// AddConfig creates a profile by copying an existing YAML file.
func AddConfig(label, srcPath string) error {
	if err := ensureDirs(); err != nil {
		return err
	}

	dst, err := labelPath(label)
	if err != nil {
		return err
	}
	if exists(dst) {
		return fmt.Errorf("config %q already exists", label)
	}

	raw, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}

	var check Config
	if err := parseYAML(raw, &check); err != nil {
		return fmt.Errorf("%s is not a valid config: %w", srcPath, err)
	}

	return os.WriteFile(dst, raw, 0644)
}

// CreateEmptyConfig creates a profile with default values.
func CreateEmptyConfig(label string) (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	path, err := labelPath(label)
	if err != nil {
		return "", err
	}
	if exists(path) {
		return "", fmt.Errorf("config %q already exists", label)
	}

	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}
	return path, nil
}

func RenameConfig(oldLabel, newLabel string) error {
	if err := ensureDirs(); err != nil {
		return err
	}

	oldPath, err := labelPath(oldLabel)
	if err != nil {
		return err
	}
	newPath, err := labelPath(newLabel)
	if err != nil {
		return err
	}

	if !exists(oldPath) {
		return fmt.Errorf("config %q does not exist", oldLabel)
	}
	if exists(newPath) {
		return fmt.Errorf("config %q already exists", newLabel)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	if active, _ := CurrentLabel(); active == oldLabel {
		return setCurrentLabel(newLabel)
	}
	return nil
}

// RemoveConfig deletes a profile. Removing the active one switches back to
// Default first; Default itself cannot be removed.
func RemoveConfig(label string, force bool) error {
	if label == "Default" {
		return errors.New("cannot remove the Default config")
	}
	if err := ensureDirs(); err != nil {
		return err
	}

	path, err := labelPath(label)
	if err != nil {
		return err
	}
	if !exists(path) {
		return fmt.Errorf("config %q does not exist", label)
	}

	if active, _ := CurrentLabel(); active == label {
		if err := SwitchConfig("Default"); err != nil {
			return fmt.Errorf("failed switching to Default: %w", err)
		}
	}

	return os.Remove(path)
}

// InitDefaultConfig creates the Default profile and makes it active. If it
// already exists it is only re-activated, signalled by os.ErrExist.
func InitDefaultConfig() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	path, err := labelPath("Default")
	if err != nil {
		return "", err
	}

	if exists(path) {
		_ = setCurrentLabel("Default")
		return path, os.ErrExist
	}

	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}

	return path, setCurrentLabel("Default")
}
