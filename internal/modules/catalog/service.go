package catalog

import (
	"context"

	"rentgear/internal/domain"
	"rentgear/internal/repository"
)

// Service is the read-only equipment catalog. Nothing in the cart core
// writes through it.
type Service struct {
	equipmentRepo *repository.EquipmentRepository
}

func NewService(equipmentRepo *repository.EquipmentRepository) *Service {
	return &Service{equipmentRepo: equipmentRepo}
}

func (s *Service) GetEquipment(ctx context.Context, id int64) (*domain.Equipment, error) {
	return s.equipmentRepo.GetByID(ctx, id)
}

func (s *Service) ListEquipment(ctx context.Context, category string) ([]domain.Equipment, error) {
	return s.equipmentRepo.GetAll(ctx, category)
}
