// Управление конфигурацией сервиса из переменных окружения.
// Содержит структуру Config для хранения параметров и функцию ReadConfig для их загрузки из переменных окружения.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения с использованием тегов struct.
//   - Преобразование типов данных из переменных окружения (string, int, bool), нечитаемые значения пропускаются с предупреждением.
//   - Маскировка секретных значений (пароль в строке подключения) в логах.
//   - Значения по умолчанию для адресов, расписания миграции и лимита тела запроса.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

const (
	DefaultListenAddr      = ":8080"
	DefaultMetricsAddr     = ":2112"
	DefaultMigrateSchedule = "0 3 * * *"
	DefaultBodyLimit       = "1M"
	DefaultDatabaseDSN     = "inline-text.db"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_URL"`

	FieldsPath string `env:"FIELDS_PATH"`

	ListenAddr  string `env:"LISTEN_ADDR"`
	MetricsAddr string `env:"METRICS_ADDR"`

	MigrateSchedule string `env:"MIGRATE_SCHEDULE"`
	MigrateDisabled bool   `env:"MIGRATE_DISABLED"`

	BodyLimit string `env:"BODY_LIMIT"`

	SlowQueryMs int `env:"SLOW_QUERY_MS"`
}

// ReadConfig загружает конфигурацию из переменных окружения и подставляет значения по умолчанию.
// Некорректное расписание миграции заменяется расписанием по умолчанию с предупреждением в логе.
func ReadConfig() *Config {
	config := &Config{}

	envConfig("env", config)

	if config.DatabaseDSN == "" {
		config.DatabaseDSN = DefaultDatabaseDSN
	}
	if config.ListenAddr == "" {
		config.ListenAddr = DefaultListenAddr
	}
	if config.MetricsAddr == "" {
		config.MetricsAddr = DefaultMetricsAddr
	}
	if config.BodyLimit == "" {
		config.BodyLimit = DefaultBodyLimit
	}

	if config.MigrateSchedule == "" {
		config.MigrateSchedule = DefaultMigrateSchedule
	} else if _, err := cron.ParseStandard(config.MigrateSchedule); err != nil {
		slog.Warn("MIGRATE_SCHEDULE incorrect, use default", "schedule", config.MigrateSchedule, "err", err)
		config.MigrateSchedule = DefaultMigrateSchedule
	}

	if config.SlowQueryMs <= 0 {
		config.SlowQueryMs = 4000
	}

	return config
}

// IsPostgres - строка подключения указывает на postgres, иначе это путь к файлу sqlite
func (c *Config) IsPostgres() bool {
	return strings.HasPrefix(c.DatabaseDSN, "postgres://") ||
		strings.HasPrefix(c.DatabaseDSN, "postgresql://") ||
		strings.Contains(c.DatabaseDSN, "host=")
}

// envConfig заполняет поля структуры из переменных окружения, имена которых заданы тегом key.
// Пустые и отсутствующие переменные пропускаются, поле сохраняет прежнее значение.
func envConfig(key string, s interface{}) {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := typeParam.Field(i)
		name := field.Tag.Get(key)
		if name == "" {
			continue
		}
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			continue
		}

		if err := setField(v.Field(i), raw); err != nil {
			slog.Warn("Skip config value", "env", name, "err", err)
			continue
		}
		slog.Info("Set config value",
			slog.String("key", typeParam.Name()+"."+field.Name),
			slog.String("value", logValue(field.Name, raw)),
			slog.String("source", "ENVIRONMENT"),
		)
	}
}

// setField приводит строку к типу поля. Поддерживаются string, int и bool.
func setField(f reflect.Value, raw string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		f.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		f.SetBool(b)
	default:
		return fmt.Errorf("unsupported field kind %s", f.Kind())
	}
	return nil
}

// logValue скрывает секреты по имени поля перед выводом в лог.
func logValue(field, raw string) string {
	lower := strings.ToLower(field)
	switch {
	case strings.Contains(lower, "pass"), strings.Contains(lower, "secret"), strings.Contains(lower, "token"):
		return mask(raw)
	case strings.Contains(lower, "dsn"):
		return maskDSN(raw)
	}
	return raw
}

func mask(s string) string {
	runes := []rune(s)
	if len(runes) <= 2 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1])
}

// maskDSN скрывает пароль в URL подключения. Строки в формате key=value маскируются целиком.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		if strings.Contains(dsn, "password=") {
			return mask(dsn)
		}
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
