// Package localization loads translation strings for user-visible status text.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

//go:embed locales/*.json
var embedded embed.FS

// DefaultLang is used when a key is missing in the requested language.
const DefaultLang = "en"

// Message keys.
const (
	KeyWaiting        = "peer.waiting"
	KeyConnected      = "peer.connected"
	KeyPartnerLeft    = "peer.partner_left"
	KeyWaitExpired    = "peer.wait_expired"
	KeyLeft           = "peer.left"
	KeyNotInRoom      = "peer.not_in_room"
	KeyAlreadyInRoom  = "peer.already_in_room"
	KeyMessageInvalid = "peer.message_invalid"
	KeySessionExpired = "session.expired"
	KeyHelp           = "bot.help"
	KeyBookingSaved   = "booking.saved"
	KeyInternalError  = "error.internal"
)

// Localizer holds translations per language.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// NewLocalizer loads every "<lang>.json" file in the root of fsys.
func NewLocalizer(fsys fs.FS) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]map[string]string),
	}

	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		lang := strings.TrimSuffix(file.Name(), ".json")
		data, err := fs.ReadFile(fsys, file.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}
		l.translations[lang] = translations
	}

	return l, nil
}

// NewDefaultLocalizer loads the translations built into the binary.
func NewDefaultLocalizer() (*Localizer, error) {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return nil, err
	}
	return NewLocalizer(sub)
}

// GetString returns the string for key in lang, falling back to DefaultLang and then to
// the key itself.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if value, ok := l.translations[lang][key]; ok {
		return value
	}
	if value, ok := l.translations[DefaultLang][key]; ok {
		return value
	}
	return key
}

// Languages lists the loaded language codes.
func (l *Localizer) Languages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	langs := make([]string, 0, len(l.translations))
	for lang := range l.translations {
		langs = append(langs, lang)
	}
	return langs
}
