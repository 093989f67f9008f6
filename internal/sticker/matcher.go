package sticker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mapping одна запись соответствия: эмодзи → идентификатор стикера.
type Mapping struct {
	Emoji  string `json:"emoji" yaml:"emoji"`
	FileID string `json:"file_id" yaml:"file_id"`
}

// Matcher подбирает стикер по наличию эмодзи в тексте.
// Список загружается один раз на старте и дальше только читается,
// поэтому Matcher безопасен для конкурентного использования.
type Matcher struct {
	mappings []Mapping
}

// NewMatcher создаёт Matcher из готового списка.
// Порядок списка значим: побеждает первое совпадение.
func NewMatcher(mappings []Mapping) *Matcher {
	return &Matcher{mappings: mappings}
}

// Load читает список соответствий из файла.
// Формат определяется расширением: .yaml и .yml читаются как YAML, иначе JSON.
func Load(path string) (*Matcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stickers file: %w", err)
	}

	var mappings []Mapping
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &mappings); err != nil {
			return nil, fmt.Errorf("parse stickers yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &mappings); err != nil {
			return nil, fmt.Errorf("parse stickers json: %w", err)
		}
	}

	return NewMatcher(mappings), nil
}

// Match возвращает идентификатор первого стикера, чьё эмодзи
// является подстрокой текста. Пустой текст не совпадает ни с чем.
func (m *Matcher) Match(text string) (string, bool) {
	if m == nil || text == "" {
		return "", false
	}
	for _, entry := range m.mappings {
		if entry.Emoji == "" {
			continue
		}
		if strings.Contains(text, entry.Emoji) {
			return entry.FileID, true
		}
	}
	return "", false
}

// Len возвращает количество загруженных соответствий.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.mappings)
}
