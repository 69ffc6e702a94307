// Содержит общие типы данных сервиса: режим хранения значения поля и вспомогательные функции очистки текста.
//
// Основные возможности:
//   - OutputMode: режим хранения (html или markdown) с сериализацией в JSON, YAML и базу данных.
//   - Удаление невидимых символов из пользовательского ввода.
package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

// OutputMode - представление, в котором хранится значение поля
type OutputMode string

const (
	OutputHTML     OutputMode = "html"
	OutputMarkdown OutputMode = "markdown"
)

var ErrUnknownOutputMode = errors.New("unknown output mode")

// ParseOutputMode разбирает режим без учета регистра. Пустая строка означает html.
func ParseOutputMode(s string) (OutputMode, error) {
	switch OutputMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputHTML:
		return OutputHTML, nil
	case OutputMarkdown:
		return OutputMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOutputMode, s)
}

func (m OutputMode) Valid() bool {
	return m == OutputHTML || m == OutputMarkdown
}

// OrDefault возвращает html для пустого режима.
func (m OutputMode) OrDefault() OutputMode {
	if m == "" {
		return OutputHTML
	}
	return m
}

func (m OutputMode) String() string {
	return string(m.OrDefault())
}

func (m OutputMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *OutputMode) UnmarshalText(data []byte) error {
	mode, err := ParseOutputMode(string(data))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

func (m OutputMode) Value() (driver.Value, error) {
	return m.String(), nil
}

func (m *OutputMode) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		return m.UnmarshalText([]byte(v))
	case []byte:
		return m.UnmarshalText(v)
	case nil:
		*m = OutputHTML
		return nil
	}
	return errors.New("unsupported type")
}

func (OutputMode) GormDataType() string {
	return "text"
}

func RemoveInvisibleChars(s string) string {
	invisible := []string{
		"\u200B",
		"\u200C",
		"\u200D",
		"\uFEFF",
	}

	for _, ch := range invisible {
		s = strings.ReplaceAll(s, ch, "")
	}
	return s
}
