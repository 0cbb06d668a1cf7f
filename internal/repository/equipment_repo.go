package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"rentgear/internal/domain"
)

var ErrEquipmentNotFound = errors.New("equipment not found")

// EquipmentRepository is the read-only catalog accessor. The cart core
// never writes through it; seeding happens in cmd/seed.
type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

type equipmentModel struct {
	ID            int64     `gorm:"column:id;primaryKey"`
	Name          string    `gorm:"column:name"`
	Category      string    `gorm:"column:category;index"`
	DailyRate     int64     `gorm:"column:daily_rate"`
	WeeklyRate    int64     `gorm:"column:weekly_rate"`
	MonthlyRate   int64     `gorm:"column:monthly_rate"`
	DeliveryFee   int64     `gorm:"column:delivery_fee"`
	SetupFee      int64     `gorm:"column:setup_fee"`
	MinRentalDays int       `gorm:"column:min_rental_days"`
	Available     int       `gorm:"column:available"`
	Total         int       `gorm:"column:total"`
	Availability  string    `gorm:"column:availability"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (equipmentModel) TableName() string { return "equipment" }

func toDomainEquipment(m equipmentModel) *domain.Equipment {
	return &domain.Equipment{
		ID:            m.ID,
		Name:          m.Name,
		Category:      m.Category,
		DailyRate:     m.DailyRate,
		WeeklyRate:    m.WeeklyRate,
		MonthlyRate:   m.MonthlyRate,
		DeliveryFee:   m.DeliveryFee,
		SetupFee:      m.SetupFee,
		MinRentalDays: m.MinRentalDays,
		Available:     m.Available,
		Total:         m.Total,
		Availability:  domain.AvailabilityStatus(m.Availability),
		CreatedAt:     m.CreatedAt,
	}
}

func toEquipmentModel(e *domain.Equipment) equipmentModel {
	return equipmentModel{
		ID:            e.ID,
		Name:          e.Name,
		Category:      e.Category,
		DailyRate:     e.DailyRate,
		WeeklyRate:    e.WeeklyRate,
		MonthlyRate:   e.MonthlyRate,
		DeliveryFee:   e.DeliveryFee,
		SetupFee:      e.SetupFee,
		MinRentalDays: e.MinRentalDays,
		Available:     e.Available,
		Total:         e.Total,
		Availability:  string(e.Availability),
		CreatedAt:     e.CreatedAt,
	}
}

func (r *EquipmentRepository) Migrate() error {
	return r.db.AutoMigrate(&equipmentModel{})
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	var m equipmentModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, tx.Error
	}
	return toDomainEquipment(m), nil
}

func (r *EquipmentRepository) GetAll(ctx context.Context, category string) ([]domain.Equipment, error) {
	q := r.db.WithContext(ctx).Model(&equipmentModel{}).Order("id")
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var rows []equipmentModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Equipment, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainEquipment(m))
	}
	return out, nil
}

// Seed replaces the catalog contents; used by cmd/seed and tests.
func (r *EquipmentRepository) Seed(ctx context.Context, items []domain.Equipment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM equipment").Error; err != nil {
			return err
		}
		for i := range items {
			m := toEquipmentModel(&items[i])
			if m.CreatedAt.IsZero() {
				m.CreatedAt = time.Now().UTC()
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
