package packages

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aydindemir/driftops-backend/pkg/db/models"
)

// Repository handles customer-package persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.CustomerPackage, error)
	ListFundedBy(ctx context.Context, transactionID uuid.UUID) ([]models.CustomerPackage, error)
	Save(ctx context.Context, pkg *models.CustomerPackage) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a package repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CustomerPackage, error) {
	var pkg models.CustomerPackage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pkg).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

func (r *repository) ListFundedBy(ctx context.Context, transactionID uuid.UUID) ([]models.CustomerPackage, error) {
	var pkgs []models.CustomerPackage
	if err := r.db.WithContext(ctx).
		Where("payment_transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&pkgs).Error; err != nil {
		return nil, err
	}
	return pkgs, nil
}

func (r *repository) Save(ctx context.Context, pkg *models.CustomerPackage) error {
	return r.db.WithContext(ctx).Save(pkg).Error
}
