// Фоновое приведение сохраненных значений к режиму хранения, настроенному для поля.
//
// Основные возможности:
//   - Поиск значений, сохраненных не в текущем режиме поля.
//   - Перекодирование html<->markdown с повторной очисткой по настройкам поля.
//   - Запуск по расписанию через cronmanager.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/aisa-it/inline-text/internal/inlinetext/config"
	"github.com/aisa-it/inline-text/internal/inlinetext/dao"
	"github.com/aisa-it/inline-text/internal/inlinetext/editor"
)

const migrateBatchSize = 100

type ValuesMigrator struct {
	store   *dao.Store
	fields  *config.Registry
	timeout time.Duration
}

func NewValuesMigrator(store *dao.Store, fields *config.Registry) *ValuesMigrator {
	return &ValuesMigrator{store: store, fields: fields, timeout: 30 * time.Minute}
}

// Migrate - задача для cronmanager
func (m *ValuesMigrator) Migrate() {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	start := time.Now()
	n, err := m.MigrateContext(ctx)
	if err != nil {
		slog.Error("Values migration failed", "migrated", n, "err", err)
		return
	}
	slog.Info("Values migration done", "migrated", n, "elapsed", time.Since(start).String())
}

// MigrateContext перекодирует значения всех полей реестра и возвращает число обновленных записей.
// Значение, которое не удалось перекодировать, пропускается с ошибкой в логе.
func (m *ValuesMigrator) MigrateContext(ctx context.Context) (int, error) {
	var migrated int
	for _, name := range m.fields.Names() {
		opts, err := m.fields.Get(name)
		if err != nil {
			return migrated, err
		}
		cfg := opts.EditorConfig()

		err = m.store.MismatchedModes(ctx, name, cfg.Output, migrateBatchSize, func(batch []dao.FieldValue) error {
			for _, v := range batch {
				value, err := editor.Reencode(cfg, v.Value, v.Mode)
				if err != nil {
					slog.Error("Reencode value", "field", v.Field, "key", v.Key, "err", err)
					continue
				}
				if err := m.store.UpdateValue(ctx, v.ID, cfg.Output, value); err != nil {
					return err
				}
				migrated++
			}
			return nil
		})
		if err != nil {
			return migrated, err
		}
	}
	return migrated, nil
}
