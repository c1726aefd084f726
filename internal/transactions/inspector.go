package transactions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aydindemir/driftops-backend/internal/bookings"
	"github.com/aydindemir/driftops-backend/internal/packages"
	"github.com/aydindemir/driftops-backend/internal/rentals"
	"github.com/aydindemir/driftops-backend/pkg/db/models"
	"github.com/aydindemir/driftops-backend/pkg/enums"
	"github.com/aydindemir/driftops-backend/pkg/errors"
)

// DependencySet is everything a transaction funded.
type DependencySet struct {
	Bookings []models.Booking        `json:"bookings"`
	Packages []models.CustomerPackage `json:"packages"`
	Rentals  []models.Rental         `json:"rentals"`
}

// HasDependencies reports whether any linked entity exists.
func (d DependencySet) HasDependencies() bool {
	return len(d.Bookings) > 0 || len(d.Packages) > 0 || len(d.Rentals) > 0
}

// Inspector discovers the entities funded by a transaction. Read-only; the
// linkage is both the payment_transaction_id column on each entity and the
// transaction's own related-entity pointer, so results are deduplicated by id.
type Inspector struct {
	txns     Repository
	bookings bookings.Repository
	packages packages.Repository
	rentals  rentals.Repository
}

// NewInspector wires a dependency inspector.
func NewInspector(txns Repository, bookingRepo bookings.Repository, packageRepo packages.Repository, rentalRepo rentals.Repository) (*Inspector, error) {
	if txns == nil || bookingRepo == nil || packageRepo == nil || rentalRepo == nil {
		return nil, fmt.Errorf("all repositories are required")
	}
	return &Inspector{txns: txns, bookings: bookingRepo, packages: packageRepo, rentals: rentalRepo}, nil
}

// WithTx rebinds the inspector's repositories to the supplied transaction.
func (i *Inspector) WithTx(tx *gorm.DB) *Inspector {
	if tx == nil {
		return i
	}
	return &Inspector{
		txns:     i.txns.WithTx(tx),
		bookings: i.bookings.WithTx(tx),
		packages: i.packages.WithTx(tx),
		rentals:  i.rentals.WithTx(tx),
	}
}

// FindDependencies loads the transaction and gathers everything it funded.
func (i *Inspector) FindDependencies(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, DependencySet, error) {
	var deps DependencySet

	if transactionID == uuid.Nil {
		return nil, deps, errors.New(errors.CodeValidation, "transaction id is required")
	}

	txn, err := i.txns.FindByID(ctx, transactionID)
	if err != nil {
		return nil, deps, errors.Wrap(errors.CodeDependency, err, "loading transaction")
	}
	if txn == nil {
		return nil, deps, errors.New(errors.CodeNotFound, "transaction not found")
	}

	deps, err = i.collect(ctx, txn)
	if err != nil {
		return nil, DependencySet{}, err
	}
	return txn, deps, nil
}

func (i *Inspector) collect(ctx context.Context, txn *models.Transaction) (DependencySet, error) {
	var deps DependencySet

	linkedBookings, err := i.bookings.ListFundedBy(ctx, txn.ID)
	if err != nil {
		return deps, errors.Wrap(errors.CodeDependency, err, "listing linked bookings")
	}
	linkedPackages, err := i.packages.ListFundedBy(ctx, txn.ID)
	if err != nil {
		return deps, errors.Wrap(errors.CodeDependency, err, "listing linked packages")
	}
	linkedRentals, err := i.rentals.ListFundedBy(ctx, txn.ID)
	if err != nil {
		return deps, errors.Wrap(errors.CodeDependency, err, "listing linked rentals")
	}

	seenBookings := map[uuid.UUID]bool{}
	for _, b := range linkedBookings {
		if !seenBookings[b.ID] {
			seenBookings[b.ID] = true
			deps.Bookings = append(deps.Bookings, b)
		}
	}
	seenPackages := map[uuid.UUID]bool{}
	for _, p := range linkedPackages {
		if !seenPackages[p.ID] {
			seenPackages[p.ID] = true
			deps.Packages = append(deps.Packages, p)
		}
	}
	seenRentals := map[uuid.UUID]bool{}
	for _, rental := range linkedRentals {
		if !seenRentals[rental.ID] {
			seenRentals[rental.ID] = true
			deps.Rentals = append(deps.Rentals, rental)
		}
	}

	// the transaction's own related-entity pointer can reference an entity
	// that never carried the back-link
	if txn.RelatedEntityID != nil && txn.RelatedEntityType != nil {
		switch *txn.RelatedEntityType {
		case enums.RelatedEntityBooking:
			if !seenBookings[*txn.RelatedEntityID] {
				booking, err := i.bookings.FindByID(ctx, *txn.RelatedEntityID)
				if err != nil {
					return deps, errors.Wrap(errors.CodeDependency, err, "loading related booking")
				}
				if booking != nil {
					deps.Bookings = append(deps.Bookings, *booking)
				}
			}
		case enums.RelatedEntityPackage:
			if !seenPackages[*txn.RelatedEntityID] {
				pkg, err := i.packages.FindByID(ctx, *txn.RelatedEntityID)
				if err != nil {
					return deps, errors.Wrap(errors.CodeDependency, err, "loading related package")
				}
				if pkg != nil {
					deps.Packages = append(deps.Packages, *pkg)
				}
			}
		case enums.RelatedEntityRental:
			if !seenRentals[*txn.RelatedEntityID] {
				rental, err := i.rentals.FindByID(ctx, *txn.RelatedEntityID)
				if err != nil {
					return deps, errors.Wrap(errors.CodeDependency, err, "loading related rental")
				}
				if rental != nil {
					deps.Rentals = append(deps.Rentals, *rental)
				}
			}
		}
	}

	return deps, nil
}
