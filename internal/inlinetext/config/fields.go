package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"

	"github.com/aisa-it/inline-text/internal/inlinetext/editor"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor/edtypes"
	"github.com/aisa-it/inline-text/internal/inlinetext/types"
	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

// DefaultFieldName - поле, доступное без файла реестра
const DefaultFieldName = "default"

var ErrFieldNotFound = errors.New("field not found")

var fieldNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,63}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("fieldName", func(fl validator.FieldLevel) bool {
		return fieldNameRe.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// FieldOptions - настройки поля редактора в том виде, в котором их задает хост.
// Флаги allow* со значением nil означают, что формат разрешен.
type FieldOptions struct {
	Label  string           `yaml:"label,omitempty" json:"label,omitempty" validate:"max=200"`
	Output types.OutputMode `yaml:"output,omitempty" json:"output" validate:"omitempty,oneof=html markdown"`

	AllowNewlines      *bool `yaml:"allowNewlines,omitempty" json:"allowNewlines,omitempty"`
	AllowBold          *bool `yaml:"allowBold,omitempty" json:"allowBold,omitempty"`
	AllowItalic        *bool `yaml:"allowItalic,omitempty" json:"allowItalic,omitempty"`
	AllowUnderline     *bool `yaml:"allowUnderline,omitempty" json:"allowUnderline,omitempty"`
	AllowStrikethrough *bool `yaml:"allowStrikethrough,omitempty" json:"allowStrikethrough,omitempty"`
	AllowCode          *bool `yaml:"allowCode,omitempty" json:"allowCode,omitempty"`
	AllowLink          *bool `yaml:"allowLink,omitempty" json:"allowLink,omitempty"`

	Required bool `yaml:"required,omitempty" json:"required"`
	Disabled bool `yaml:"disabled,omitempty" json:"disabled"`
}

// RegistrationDefaults - настройки, с которыми поле регистрируется без явных флагов:
// зачеркивание, код и ссылки выключены.
func RegistrationDefaults() FieldOptions {
	off := func() *bool { b := false; return &b }
	return FieldOptions{
		Output:             types.OutputHTML,
		AllowStrikethrough: off(),
		AllowCode:          off(),
		AllowLink:          off(),
	}
}

func (o FieldOptions) Validate() error {
	return validate.Struct(o)
}

func allowed(flag *bool) bool {
	return flag == nil || *flag
}

// Allowed собирает набор разрешенных форматов из флагов.
func (o FieldOptions) Allowed() edtypes.FormatSet {
	flags := map[edtypes.Format]*bool{
		edtypes.Bold:          o.AllowBold,
		edtypes.Italic:        o.AllowItalic,
		edtypes.Underline:     o.AllowUnderline,
		edtypes.Strikethrough: o.AllowStrikethrough,
		edtypes.Code:          o.AllowCode,
		edtypes.Link:          o.AllowLink,
	}
	var set edtypes.FormatSet
	for f, flag := range flags {
		if allowed(flag) {
			set = set.Add(f)
		}
	}
	return set
}

// EditorConfig переводит настройки поля в конфигурацию экземпляра редактора.
func (o FieldOptions) EditorConfig() editor.Config {
	return editor.Config{
		Output:        o.Output.OrDefault(),
		AllowNewlines: allowed(o.AllowNewlines),
		Allowed:       o.Allowed(),
		Disabled:      o.Disabled,
	}
}

type fieldsFile struct {
	Fields map[string]FieldOptions `yaml:"fields" validate:"required,dive"`
}

// Registry - реестр полей. После загрузки только читается.
type Registry struct {
	fields map[string]FieldOptions
}

// NewRegistry создает реестр из готового набора полей, проверяя имена и настройки.
func NewRegistry(fields map[string]FieldOptions) (*Registry, error) {
	for name, opts := range fields {
		if err := validate.Var(name, "required,fieldName"); err != nil {
			return nil, fmt.Errorf("field %q: invalid name: %w", name, err)
		}
		if err := opts.Validate(); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
	}
	return &Registry{fields: fields}, nil
}

// DefaultRegistry - реестр с единственным полем default в настройках регистрации.
func DefaultRegistry() *Registry {
	return &Registry{fields: map[string]FieldOptions{DefaultFieldName: RegistrationDefaults()}}
}

// ParseFields разбирает YAML вида `fields: {name: {...}}`.
func ParseFields(data []byte) (*Registry, error) {
	var f fieldsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if err := validate.Struct(f); err != nil {
		return nil, err
	}
	return NewRegistry(f.Fields)
}

// LoadFields читает реестр из файла. Пустой путь означает реестр по умолчанию.
func LoadFields(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFields(data)
}

func (r *Registry) Get(name string) (FieldOptions, error) {
	opts, ok := r.fields[name]
	if !ok {
		return FieldOptions{}, fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	return opts, nil
}

// Names возвращает имена полей по алфавиту.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
