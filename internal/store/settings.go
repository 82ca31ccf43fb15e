package store

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// Setting keys.
const (
	KeySpeech        = "speech"
	KeySpeechRate    = "speech_rate"
	KeySpeechCommand = "speech_command"
)

var ErrUnknownSetting = errors.New("unknown setting")

// SpeechCommands are the accepted values of speech_command.
var SpeechCommands = []string{"auto", "espeak-ng", "espeak", "spd-say", "say"}

// SpeechSettings is the typed view of the speech_* keys.
type SpeechSettings struct {
	Enabled bool
	Rate    int
	Command string
}

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// ValidateSetting checks a user-supplied value for one of the known keys.
func ValidateSetting(key, value string) error {
	switch key {
	case KeySpeech:
		if value != "on" && value != "off" {
			return fmt.Errorf("%s must be on or off, got %q", key, value)
		}
	case KeySpeechRate:
		n, err := strconv.Atoi(value)
		if err != nil || n < 50 || n > 400 {
			return fmt.Errorf("%s must be a number between 50 and 400, got %q", key, value)
		}
	case KeySpeechCommand:
		if !slices.Contains(SpeechCommands, value) {
			return fmt.Errorf("%s must be one of %v, got %q", key, SpeechCommands, value)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	return nil
}

// GetSpeechSettings reads the speech keys, falling back to defaults for
// missing or malformed values.
func (s *Store) GetSpeechSettings() (SpeechSettings, error) {
	out := SpeechSettings{Enabled: true, Rate: 150, Command: "auto"}

	all, err := s.GetAllSettings()
	if err != nil {
		return out, err
	}
	for _, kv := range all {
		if ValidateSetting(kv.Key, kv.Value) != nil {
			continue
		}
		switch kv.Key {
		case KeySpeech:
			out.Enabled = kv.Value == "on"
		case KeySpeechRate:
			out.Rate, _ = strconv.Atoi(kv.Value)
		case KeySpeechCommand:
			out.Command = kv.Value
		}
	}
	return out, nil
}
