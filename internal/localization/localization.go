// Package localization provides the user-facing strings of the engine: push
// notification titles and bodies, and moderator alert text. Translations are
// embedded JSON files named with the language code (e.g. "ko.json").
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// DefaultLanguage is used for pushes; the app ships in Korean.
const DefaultLanguage = "ko"

const (
	ChatPushTitle  = "push.chat.title"
	ChatPushBody   = "push.chat.body"
	UnknownSender  = "push.chat.unknown_sender"
	ReplyPushTitle = "push.reply.title"
	ReplyPushBody  = "push.reply.body"

	AlertFlagged      = "alert.flagged"
	AlertRestored     = "alert.restored"
	AlertQueueEmpty   = "alert.queue.empty"
	AlertQueueHeader  = "alert.queue.header"
	AlertRestoreUsage = "alert.usage.restore"
)

//go:embed locales/*.json
var embedded embed.FS

// Localizer manages the translations for the application.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// NewLocalizer loads the embedded translations.
func NewLocalizer() (*Localizer, error) {
	return NewLocalizerFS(embedded, "locales")
}

// NewLocalizerFS loads every *.json file in dir of fsys.
func NewLocalizerFS(fsys fs.FS, dir string) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]map[string]string),
	}

	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		lang := strings.TrimSuffix(file.Name(), ".json")
		data, err := fs.ReadFile(fsys, path.Join(dir, file.Name()))
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

// MustDefault returns the embedded localizer and panics if the embedded
// files are malformed.
func MustDefault() *Localizer {
	l, err := NewLocalizer()
	if err != nil {
		panic(err)
	}
	return l
}

// GetString returns the localized string for a given key and language.
// If the language or the key is not found, it falls back to DefaultLanguage
// and then to the key itself.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if langTranslations, ok := l.translations[lang]; ok {
		if value, ok := langTranslations[key]; ok {
			return value
		}
	}

	if lang != DefaultLanguage {
		if defTranslations, ok := l.translations[DefaultLanguage]; ok {
			if value, ok := defTranslations[key]; ok {
				return value
			}
		}
	}

	return key
}

// Format looks up key and substitutes each {name} placeholder with the
// matching value from args.
func (l *Localizer) Format(lang, key string, args map[string]string) string {
	s := l.GetString(lang, key)
	if len(args) == 0 {
		return s
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
