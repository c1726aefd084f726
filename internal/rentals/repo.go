package rentals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aydindemir/driftops-backend/pkg/db/models"
)

// Repository handles rental persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	ListFundedBy(ctx context.Context, transactionID uuid.UUID) ([]models.Rental, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a rental repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	var rental models.Rental
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rental).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rental, nil
}

func (r *repository) ListFundedBy(ctx context.Context, transactionID uuid.UUID) ([]models.Rental, error) {
	var rentals []models.Rental
	if err := r.db.WithContext(ctx).
		Where("payment_transaction_id = ?", transactionID).
		Order("start_date ASC").
		Find(&rentals).Error; err != nil {
		return nil, err
	}
	return rentals, nil
}

// Delete removes a rental by id. Returns false when no row existed.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Rental{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
