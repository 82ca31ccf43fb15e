package preset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileName = "presets.yaml"

type yamlFile struct {
	Presets []Preset `yaml:"presets"`
}

// ErrEmptyFile is returned when a preset file holds no presets.
var ErrEmptyFile = errors.New("preset file has no presets")

// DefaultPath returns ~/.config/voicecount/presets.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "voicecount", fileName), nil
}

// Load reads presets from path. On any failure it returns the built-in
// defaults together with the cause; a missing file yields os.ErrNotExist.
func Load(path string) ([]Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), err
		}
		return Defaults(), fmt.Errorf("read preset file: %w", err)
	}

	var doc yamlFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Defaults(), fmt.Errorf("parse preset yaml: %w", err)
	}
	if len(doc.Presets) == 0 {
		return Defaults(), ErrEmptyFile
	}
	for i, p := range doc.Presets {
		if err := p.Validate(); err != nil {
			return Defaults(), fmt.Errorf("preset %d: %w", i+1, err)
		}
	}
	return doc.Presets, nil
}

// Save writes presets to a temp file next to path and renames it into place,
// so a failed write never truncates the existing file.
func Save(path string, presets []Preset) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(yamlFile{Presets: presets})
	if err != nil {
		return fmt.Errorf("marshal preset yaml: %w", err)
	}

	tmp, err := os.CreateTemp(dir, fileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp preset file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod preset file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write preset file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync preset file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close preset file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace preset file: %w", err)
	}
	return nil
}
