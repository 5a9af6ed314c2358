// Package i18n holds the message catalog used for SMS, email and reminder
// texts. English is the reference locale; other locales fall back to it
// key by key.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

const (
	LangEN = "en"
	LangFR = "fr"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

type Manager struct {
	defaultLanguage string
	// catalogs holds each language merged over the English reference.
	catalogs  map[string]map[string]string
	missing   map[string][]string
	supported []string
}

// NewManager loads the locales compiled into the binary.
func NewManager(defaultLanguage string) (*Manager, error) {
	return NewManagerFromFS(defaultLanguage, embeddedLocales, "locales")
}

func NewManagerFromFS(defaultLanguage string, files fs.FS, localesDir string) (*Manager, error) {
	raw, err := readLocales(files, localesDir)
	if err != nil {
		return nil, err
	}
	reference, ok := raw[LangEN]
	if !ok {
		return nil, fmt.Errorf("required locale %q missing", LangEN)
	}

	manager := &Manager{
		catalogs: make(map[string]map[string]string, len(raw)),
		missing:  make(map[string][]string, len(raw)),
	}
	for language, messages := range raw {
		merged := make(map[string]string, len(reference))
		for key, value := range reference {
			merged[key] = value
		}
		for key, value := range messages {
			if strings.TrimSpace(value) != "" {
				merged[key] = value
			}
		}
		manager.catalogs[language] = merged
		manager.supported = append(manager.supported, language)

		for key := range reference {
			if strings.TrimSpace(messages[key]) == "" {
				manager.missing[language] = append(manager.missing[language], key)
			}
		}
		sort.Strings(manager.missing[language])
	}
	sort.Strings(manager.supported)

	manager.defaultLanguage = LangEN
	manager.defaultLanguage = manager.NormalizeLanguage(defaultLanguage)
	return manager, nil
}

func readLocales(files fs.FS, localesDir string) (map[string]map[string]string, error) {
	entries, err := fs.ReadDir(files, localesDir)
	if err != nil {
		return nil, fmt.Errorf("read locales dir: %w", err)
	}

	locales := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".json" {
			continue
		}
		language := strings.ToLower(strings.TrimSuffix(name, path.Ext(name)))

		content, err := fs.ReadFile(files, path.Join(localesDir, name))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", language, err)
		}
		messages := map[string]string{}
		if err := json.Unmarshal(content, &messages); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", language, err)
		}
		if len(messages) == 0 {
			return nil, fmt.Errorf("locale %s is empty", language)
		}
		locales[language] = messages
	}
	if len(locales) == 0 {
		return nil, fmt.Errorf("no locales found in %s", localesDir)
	}
	return locales, nil
}

func (manager *Manager) DefaultLanguage() string {
	return manager.defaultLanguage
}

func (manager *Manager) SupportedLanguages() []string {
	result := make([]string, len(manager.supported))
	copy(result, manager.supported)
	return result
}

// MissingKeys lists reference keys the language does not translate.
func (manager *Manager) MissingKeys(language string) []string {
	keys := manager.missing[normalizeLanguageTag(language)]
	result := make([]string, len(keys))
	copy(result, keys)
	return result
}

// NormalizeLanguage maps "fr-CA" or "FR" to a supported code, else the
// default language.
func (manager *Manager) NormalizeLanguage(raw string) string {
	normalized := normalizeLanguageTag(raw)
	if manager.isSupported(normalized) {
		return normalized
	}
	return manager.defaultLanguage
}

func (manager *Manager) DetectFromAcceptLanguage(raw string) string {
	for _, part := range strings.Split(raw, ",") {
		tag, _, _ := strings.Cut(part, ";")
		if normalized := normalizeLanguageTag(tag); manager.isSupported(normalized) {
			return normalized
		}
	}
	return manager.defaultLanguage
}

// Messages returns a copy of the merged catalog for language.
func (manager *Manager) Messages(language string) map[string]string {
	catalog := manager.catalog(language)
	result := make(map[string]string, len(catalog))
	for key, value := range catalog {
		result[key] = value
	}
	return result
}

func (manager *Manager) Translate(language string, key string) string {
	if value, ok := manager.catalog(language)[key]; ok {
		return value
	}
	return key
}

func (manager *Manager) Translatef(language string, key string, args ...any) string {
	return fmt.Sprintf(manager.Translate(language, key), args...)
}

func (manager *Manager) catalog(language string) map[string]string {
	return manager.catalogs[manager.NormalizeLanguage(language)]
}

func (manager *Manager) isSupported(language string) bool {
	if language == "" {
		return false
	}
	_, ok := manager.catalogs[language]
	return ok
}

func normalizeLanguageTag(raw string) string {
	language := strings.ToLower(strings.TrimSpace(raw))
	language = strings.ReplaceAll(language, "_", "-")
	if base, _, found := strings.Cut(language, "-"); found {
		language = base
	}
	return language
}
