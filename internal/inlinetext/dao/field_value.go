// Хранение значений полей редактора в базе данных через GORM.
//
// Основные возможности:
//   - Модель FieldValue: значение поля по ключу вместе с режимом, в котором оно сохранено.
//   - Открытие подключения к postgres или sqlite по строке подключения.
//   - Сохранение с заменой, чтение, список и удаление значений.
//   - Пакетный обход значений с режимом, отличным от настроенного для поля.
package dao

import (
	"context"
	"errors"
	"time"

	"github.com/aisa-it/inline-text/internal/inlinetext/types"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrValueNotFound = errors.New("value not found")

type FieldValue struct {
	// id uuid IS_NULL:NO
	ID uuid.UUID `gorm:"primaryKey" json:"id"`
	// field text IS_NULL:NO
	Field string `json:"field" gorm:"uniqueIndex:field_values_field_key_idx;not null"`
	// key text IS_NULL:NO
	Key string `json:"key" gorm:"uniqueIndex:field_values_field_key_idx;not null"`
	// mode text IS_NULL:NO
	Mode types.OutputMode `json:"mode" gorm:"not null"`
	// value text IS_NULL:NO
	Value string `json:"value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FieldValue) TableName() string { return "field_values" }

func (v *FieldValue) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = GenUUID()
	}
	v.Mode = v.Mode.OrDefault()
	return nil
}

// GenUUID генерирует уникальный идентификатор в формате UUID.
func GenUUID() uuid.UUID {
	u2, _ := uuid.NewV4()
	return u2
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate создает или обновляет таблицу значений.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&FieldValue{})
}

func fieldKey(field, key string) map[string]any {
	return map[string]any{"field": field, "key": key}
}

// Get возвращает значение поля по ключу.
func (s *Store) Get(ctx context.Context, field, key string) (*FieldValue, error) {
	var v FieldValue
	if err := s.db.WithContext(ctx).Where(fieldKey(field, key)).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrValueNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Put сохраняет значение, заменяя существующее с тем же полем и ключом. После сохранения v содержит запись из базы.
func (s *Store) Put(ctx context.Context, v *FieldValue) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing FieldValue
		err := tx.Where(fieldKey(v.Field, v.Key)).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(v).Error
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&existing).Updates(map[string]any{
			"mode":  v.Mode.OrDefault(),
			"value": v.Value,
		}).Error; err != nil {
			return err
		}
		return tx.First(v, "id = ?", existing.ID).Error
	})
}

// List возвращает значения поля, отсортированные по ключу.
func (s *Store) List(ctx context.Context, field string) ([]FieldValue, error) {
	var res []FieldValue
	err := s.db.WithContext(ctx).
		Where(map[string]any{"field": field}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).
		Find(&res).Error
	return res, err
}

func (s *Store) Delete(ctx context.Context, field, key string) error {
	res := s.db.WithContext(ctx).Where(fieldKey(field, key)).Delete(&FieldValue{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrValueNotFound
	}
	return nil
}

// UpdateValue перезаписывает значение и режим записи по идентификатору.
func (s *Store) UpdateValue(ctx context.Context, id uuid.UUID, mode types.OutputMode, value string) error {
	return s.db.WithContext(ctx).
		Model(&FieldValue{}).
		Where("id = ?", id).
		Updates(map[string]any{"mode": mode.OrDefault(), "value": value}).Error
}

// MismatchedModes обходит пакетами значения поля, сохраненные не в режиме mode.
//
// Параметры:
//   - field: имя поля.
//   - mode: режим, настроенный для поля.
//   - batchSize: размер пакета.
//   - fn: обработчик пакета, ошибка прерывает обход.
func (s *Store) MismatchedModes(ctx context.Context, field string, mode types.OutputMode, batchSize int, fn func(batch []FieldValue) error) error {
	var batch []FieldValue
	return s.db.WithContext(ctx).
		Where(map[string]any{"field": field}).
		Where("mode <> ?", mode.OrDefault()).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, n int) error {
			return fn(batch)
		}).Error
}
