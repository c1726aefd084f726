package transactions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aydindemir/driftops-backend/internal/bookings"
	"github.com/aydindemir/driftops-backend/internal/locks"
	"github.com/aydindemir/driftops-backend/internal/packages"
	"github.com/aydindemir/driftops-backend/internal/rentals"
	"github.com/aydindemir/driftops-backend/internal/wallet"
	"github.com/aydindemir/driftops-backend/pkg/db/models"
	"github.com/aydindemir/driftops-backend/pkg/enums"
	"github.com/aydindemir/driftops-backend/pkg/errors"
	"github.com/aydindemir/driftops-backend/pkg/logger"
	"github.com/aydindemir/driftops-backend/pkg/outbox"
	"github.com/aydindemir/driftops-backend/pkg/outbox/payloads"
)

// txRunner abstracts db.Client.WithTx for testability.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// customerLocker serializes cascades per customer.
type customerLocker interface {
	Acquire(ctx context.Context, customerID uuid.UUID) (bool, locks.Release, error)
}

// DeleteOptions is the caller-supplied deletion payload.
type DeleteOptions struct {
	Force      bool
	HardDelete bool
	Cascade    []CascadeOption
	Reason     string
	Actor      *outbox.ActorRef
}

// PackageOutcome records what happened to one package during a cascade.
type PackageOutcome struct {
	PackageID           uuid.UUID             `json:"package_id"`
	Strategy            enums.CascadeStrategy `json:"strategy"`
	ChargedAmount       *decimal.Decimal      `json:"charged_amount,omitempty"`
	ChargeTransactionID *uuid.UUID            `json:"charge_transaction_id,omitempty"`
	DeletedBookings     []uuid.UUID           `json:"deleted_bookings,omitempty"`
}

// DeleteResult summarizes a completed deletion.
type DeleteResult struct {
	TransactionID   uuid.UUID        `json:"transaction_id"`
	CustomerID      uuid.UUID        `json:"customer_id"`
	AlreadyResolved bool             `json:"already_resolved,omitempty"`
	HardDeleted     bool             `json:"hard_deleted,omitempty"`
	ReversalID      *uuid.UUID       `json:"reversal_id,omitempty"`
	DeletedBookings []uuid.UUID      `json:"deleted_bookings,omitempty"`
	DeletedRentals  []uuid.UUID      `json:"deleted_rentals,omitempty"`
	Packages        []PackageOutcome `json:"packages,omitempty"`
	Wallet          *models.Wallet   `json:"wallet,omitempty"`
}

// ConflictDetails is attached to the dependency-conflict error so the caller
// can review and re-submit with selections.
type ConflictDetails struct {
	Dependencies      DependencySet      `json:"dependencies"`
	DefaultStrategies []ResolvedStrategy `json:"default_strategies,omitempty"`
}

// DependencySummary is the read-only review surface for a pending deletion.
type DependencySummary struct {
	Transaction       *models.Transaction `json:"transaction"`
	Dependencies      DependencySet       `json:"dependencies"`
	HasDependencies   bool                `json:"has_dependencies"`
	DefaultStrategies []ResolvedStrategy  `json:"default_strategies,omitempty"`
}

// Coordinator orchestrates transaction deletion: dependency discovery, the
// review gate, cascade execution, reversal or hard delete, and balance resync.
// The cascade steps run inside one database transaction, serialized per
// customer by a Redis lock.
type Coordinator struct {
	runner     txRunner
	txns       Repository
	inspector  *Inspector
	bookings   bookings.Repository
	packages   packages.Repository
	rentals    rentals.Repository
	walletRepo wallet.Repository
	wallets    wallet.Service
	locker     customerLocker
	events     *outbox.Service
	logg       *logger.Logger
}

// NewCoordinator wires the deletion coordinator. The outbox service is
// optional; everything else is required.
func NewCoordinator(
	runner txRunner,
	txns Repository,
	inspector *Inspector,
	bookingRepo bookings.Repository,
	packageRepo packages.Repository,
	rentalRepo rentals.Repository,
	walletRepo wallet.Repository,
	walletSvc wallet.Service,
	locker customerLocker,
	events *outbox.Service,
	logg *logger.Logger,
) (*Coordinator, error) {
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if txns == nil || inspector == nil || bookingRepo == nil || packageRepo == nil || rentalRepo == nil {
		return nil, fmt.Errorf("all repositories are required")
	}
	if walletRepo == nil || walletSvc == nil {
		return nil, fmt.Errorf("wallet access required")
	}
	if locker == nil {
		return nil, fmt.Errorf("customer locker required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Coordinator{
		runner:     runner,
		txns:       txns,
		inspector:  inspector,
		bookings:   bookingRepo,
		packages:   packageRepo,
		rentals:    rentalRepo,
		walletRepo: walletRepo,
		wallets:    walletSvc,
		locker:     locker,
		events:     events,
		logg:       logg,
	}, nil
}

// Dependencies is the read-only review call. It performs no mutation and is
// the natural cancellation point of the flow.
func (c *Coordinator) Dependencies(ctx context.Context, transactionID uuid.UUID) (*DependencySummary, error) {
	txn, deps, err := c.inspector.FindDependencies(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return &DependencySummary{
		Transaction:       txn,
		Dependencies:      deps,
		HasDependencies:   deps.HasDependencies(),
		DefaultStrategies: DefaultStrategies(deps),
	}, nil
}

// Delete executes the deletion protocol for one transaction.
func (c *Coordinator) Delete(ctx context.Context, transactionID uuid.UUID, opts DeleteOptions) (*DeleteResult, error) {
	if transactionID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "transaction id is required")
	}

	// reject ambiguous strategies before anything is touched
	for _, option := range opts.Cascade {
		if option.PackageID == uuid.Nil {
			return nil, errors.New(errors.CodeValidation, "cascade option missing package id")
		}
		if option.Strategy != "" {
			if _, err := enums.ParseCascadeStrategy(option.Strategy); err != nil {
				return nil, errors.New(errors.CodeValidation,
					fmt.Sprintf("invalid cascade strategy %q for package %s", option.Strategy, option.PackageID))
			}
		}
	}

	txn, deps, err := c.inspector.FindDependencies(ctx, transactionID)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			c.logg.Warn(c.logg.WithField(ctx, "transaction_id", transactionID.String()),
				"transaction already removed, nothing to delete")
			return &DeleteResult{TransactionID: transactionID, AlreadyResolved: true}, nil
		}
		return nil, err
	}

	if !opts.HardDelete && !opts.Force && deps.HasDependencies() {
		return nil, errors.New(errors.CodeConflict, "transaction has dependencies").
			WithDetails(ConflictDetails{
				Dependencies:      deps,
				DefaultStrategies: DefaultStrategies(deps),
			})
	}

	acquired, release, err := c.locker.Acquire(ctx, txn.CustomerID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "acquiring customer lock")
	}
	if !acquired {
		return nil, errors.New(errors.CodeConflict, "another deletion is in progress for this customer")
	}
	defer func() {
		if err := release(ctx); err != nil {
			c.logg.Warn(c.logg.WithCustomerID(ctx, txn.CustomerID.String()), "customer lock release failed")
		}
	}()

	result := &DeleteResult{TransactionID: transactionID, CustomerID: txn.CustomerID}

	txErr := c.runner.WithTx(ctx, func(tx *gorm.DB) error {
		return c.execute(ctx, tx, txn, opts, result)
	})
	if txErr != nil {
		// the rollback left the ledger untouched, but the wallet row may
		// predate this call; resync keeps it aligned with the ledger
		if _, syncErr := c.wallets.Resync(ctx, txn.CustomerID); syncErr != nil {
			c.logg.Error(ctx, "post-failure wallet resync failed", syncErr)
		}
		return nil, txErr
	}

	c.logg.Info(c.logg.WithFields(ctx, map[string]any{
		"transaction_id": transactionID.String(),
		"customer_id":    txn.CustomerID.String(),
		"hard_delete":    result.HardDeleted,
		"bookings":       len(result.DeletedBookings),
		"packages":       len(result.Packages),
		"rentals":        len(result.DeletedRentals),
	}), "transaction deleted")

	return result, nil
}

func (c *Coordinator) execute(ctx context.Context, tx *gorm.DB, txn *models.Transaction, opts DeleteOptions, result *DeleteResult) error {
	txns := c.txns.WithTx(tx)
	bookingRepo := c.bookings.WithTx(tx)
	packageRepo := c.packages.WithTx(tx)
	rentalRepo := c.rentals.WithTx(tx)

	if opts.HardDelete {
		deleted, err := txns.Delete(ctx, txn.ID)
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "hard-deleting transaction")
		}
		if !deleted {
			result.AlreadyResolved = true
		}
		result.HardDeleted = true

		c.emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransactionHardDeleted,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   txn.ID,
			Actor:         opts.Actor,
			Data: payloads.TransactionHardDeletedEvent{
				TransactionID: txn.ID,
				CustomerID:    txn.CustomerID,
				Amount:        txn.Amount,
				Reason:        opts.Reason,
			},
		})

		return c.resync(ctx, tx, txn.CustomerID, result)
	}

	// rediscover inside the transaction so the cascade acts on current rows
	_, deps, err := c.inspector.WithTx(tx).FindDependencies(ctx, txn.ID)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			result.AlreadyResolved = true
			return nil
		}
		return err
	}

	optionByPackage := map[uuid.UUID]*CascadeOption{}
	for idx := range opts.Cascade {
		option := opts.Cascade[idx]
		optionByPackage[option.PackageID] = &option
	}

	strategies := make(map[uuid.UUID]ResolvedStrategy, len(deps.Packages))
	for idx := range deps.Packages {
		pkg := deps.Packages[idx]
		usage := packages.ExtractUsage(&pkg)
		resolved, err := ResolveStrategy(pkg.ID, usage, optionByPackage[pkg.ID])
		if err != nil {
			return err
		}
		strategies[pkg.ID] = resolved
	}

	deletedBookings := map[uuid.UUID]bool{}

	// (a) bookings funded directly, unless a package-deletion strategy will
	// sweep them up in the next step
	for idx := range deps.Bookings {
		booking := deps.Bookings[idx]
		if booking.PackageID != nil {
			if resolved, ok := strategies[*booking.PackageID]; ok && resolved.Strategy == enums.CascadeStrategyDeleteAllLessons {
				continue
			}
		}
		if err := c.deleteBooking(ctx, tx, bookingRepo, booking, opts.Reason, opts.Actor, deletedBookings); err != nil {
			return err
		}
		result.DeletedBookings = append(result.DeletedBookings, booking.ID)
	}

	// (b) package dispositions
	for idx := range deps.Packages {
		pkg := deps.Packages[idx]
		outcome, err := c.settlePackage(ctx, tx, txns, bookingRepo, packageRepo, &pkg, strategies[pkg.ID], opts, deletedBookings)
		if err != nil {
			return err
		}
		result.Packages = append(result.Packages, *outcome)
	}

	// (c) rentals
	for idx := range deps.Rentals {
		rental := deps.Rentals[idx]
		deleted, err := rentalRepo.Delete(ctx, rental.ID)
		if err != nil {
			return errors.Wrap(errors.CodeDependency, err, "deleting rental")
		}
		if !deleted {
			c.logg.Warn(c.logg.WithField(ctx, "rental_id", rental.ID.String()), "rental already removed, skipping")
			continue
		}
		result.DeletedRentals = append(result.DeletedRentals, rental.ID)

		c.emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEquipmentFreed,
			AggregateType: enums.AggregateRental,
			AggregateID:   rental.ID,
			Actor:         opts.Actor,
			Data: payloads.EquipmentFreedEvent{
				RentalID:   rental.ID,
				CustomerID: rental.CustomerID,
				Equipment:  rental.Equipment,
				StartDate:  rental.StartDate,
				EndDate:    rental.EndDate,
			},
		})
	}

	// (d) the reversal preserves the audit trail of the removed entry
	reversal := &models.Transaction{
		CustomerID:            txn.CustomerID,
		Amount:                txn.Amount.Neg(),
		Currency:              txn.Currency,
		Type:                  enums.TransactionTypeReversal,
		Status:                enums.TransactionStatusCompleted,
		ServiceType:           txn.ServiceType,
		ReversesTransactionID: &txn.ID,
		Description:           reversalDescription(opts.Reason),
	}
	if err := txns.Create(ctx, reversal); err != nil {
		return errors.Wrap(errors.CodeDependency, err, "creating reversal transaction")
	}
	result.ReversalID = &reversal.ID

	c.emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventTransactionReversed,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   txn.ID,
		Actor:         opts.Actor,
		Data: payloads.TransactionReversedEvent{
			TransactionID: txn.ID,
			ReversalID:    reversal.ID,
			CustomerID:    txn.CustomerID,
			Amount:        txn.Amount,
			Reason:        opts.Reason,
		},
	})

	// (e) remove the original row
	deleted, err := txns.Delete(ctx, txn.ID)
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "deleting transaction")
	}
	if !deleted {
		c.logg.Warn(c.logg.WithField(ctx, "transaction_id", txn.ID.String()), "transaction row already removed")
	}

	return c.resync(ctx, tx, txn.CustomerID, result)
}

func (c *Coordinator) settlePackage(
	ctx context.Context,
	tx *gorm.DB,
	txns Repository,
	bookingRepo bookings.Repository,
	packageRepo packages.Repository,
	pkg *models.CustomerPackage,
	resolved ResolvedStrategy,
	opts DeleteOptions,
	deletedBookings map[uuid.UUID]bool,
) (*PackageOutcome, error) {
	outcome := &PackageOutcome{PackageID: pkg.ID, Strategy: resolved.Strategy}
	phase := phasePending

	switch resolved.Strategy {
	case enums.CascadeStrategyChargeUsed:
		if !phase.canTransition(phaseChargedUsed) {
			return nil, errors.New(errors.CodeInternal, "invalid package phase transition")
		}
		phase = phaseChargedUsed

		usage := packages.ExtractUsage(pkg)
		charged := usage.UsedAmount

		if charged.IsPositive() {
			if !resolved.AllowNegative {
				totals, err := c.walletRepo.WithTx(tx).LedgerTotals(ctx, pkg.CustomerID)
				if err != nil {
					return nil, errors.Wrap(errors.CodeDependency, err, "checking wallet balance")
				}
				if totals.Balance.Sub(charged).IsNegative() {
					return nil, errors.New(errors.CodeNegativeBalance,
						fmt.Sprintf("charging used hours for package %q would drive the wallet negative", pkg.Name)).
						WithDetails(map[string]any{
							"package_id":      pkg.ID.String(),
							"package_name":    pkg.Name,
							"required_amount": charged.String(),
							"current_balance": totals.Balance.String(),
						})
				}
			}

			entityType := enums.RelatedEntityPackage
			serviceType := enums.ServiceTypePackages
			debit := &models.Transaction{
				CustomerID:        pkg.CustomerID,
				Amount:            charged.Neg(),
				Currency:          pkg.Currency,
				Type:              enums.TransactionTypeCharge,
				Status:            enums.TransactionStatusCompleted,
				ServiceType:       &serviceType,
				RelatedEntityID:   &pkg.ID,
				RelatedEntityType: &entityType,
				Description:       chargeDescription(pkg.Name, usage.UsedHours),
			}
			if err := txns.Create(ctx, debit); err != nil {
				return nil, errors.Wrap(errors.CodeDependency, err, "creating usage charge")
			}

			outcome.ChargedAmount = &charged
			outcome.ChargeTransactionID = &debit.ID

			c.emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPackageChargedUsed,
				AggregateType: enums.AggregatePackage,
				AggregateID:   pkg.ID,
				Actor:         opts.Actor,
				Data: payloads.PackageChargedUsedEvent{
					PackageID:     pkg.ID,
					CustomerID:    pkg.CustomerID,
					UsedHours:     usage.UsedHours,
					ChargedAmount: charged,
					TransactionID: debit.ID,
				},
			})
		}

		// the package row remains, fully consumed
		zero := 0.0
		pkg.RemainingHours = &zero
		pkg.Status = enums.PackageStatusExhausted
		pkg.PaymentTransactionID = nil
		if err := packageRepo.Save(ctx, pkg); err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "updating package")
		}

	case enums.CascadeStrategyDeleteAllLessons:
		if !phase.canTransition(phaseLessonsDeleted) {
			return nil, errors.New(errors.CodeInternal, "invalid package phase transition")
		}
		phase = phaseLessonsDeleted

		linked, err := bookingRepo.ListByPackage(ctx, pkg.ID)
		if err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "listing package bookings")
		}
		for idx := range linked {
			booking := linked[idx]
			if err := c.deleteBooking(ctx, tx, bookingRepo, booking, opts.Reason, opts.Actor, deletedBookings); err != nil {
				return nil, err
			}
			outcome.DeletedBookings = append(outcome.DeletedBookings, booking.ID)
		}

		pkg.Status = enums.PackageStatusCancelled
		pkg.PaymentTransactionID = nil
		if err := packageRepo.Save(ctx, pkg); err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "updating package")
		}

		c.emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPackageLessonsDeleted,
			AggregateType: enums.AggregatePackage,
			AggregateID:   pkg.ID,
			Actor:         opts.Actor,
			Data: payloads.PackageLessonsDeletedEvent{
				PackageID:       pkg.ID,
				CustomerID:      pkg.CustomerID,
				DeletedBookings: outcome.DeletedBookings,
			},
		})

	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid cascade strategy %q", resolved.Strategy))
	}

	if !phase.canTransition(phaseFinalized) {
		return nil, errors.New(errors.CodeInternal, "invalid package phase transition")
	}

	return outcome, nil
}

func (c *Coordinator) deleteBooking(
	ctx context.Context,
	tx *gorm.DB,
	bookingRepo bookings.Repository,
	booking models.Booking,
	reason string,
	actor *outbox.ActorRef,
	deletedBookings map[uuid.UUID]bool,
) error {
	if deletedBookings[booking.ID] {
		return nil
	}
	deleted, err := bookingRepo.Delete(ctx, booking.ID)
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "deleting booking")
	}
	deletedBookings[booking.ID] = true
	if !deleted {
		c.logg.Warn(c.logg.WithField(ctx, "booking_id", booking.ID.String()), "booking already removed, skipping")
		return nil
	}

	c.emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSlotReleased,
		AggregateType: enums.AggregateBooking,
		AggregateID:   booking.ID,
		Actor:         actor,
		Data: payloads.SlotReleasedEvent{
			BookingID:    booking.ID,
			CustomerID:   booking.CustomerID,
			InstructorID: booking.InstructorID,
			StartsAt:     booking.StartsAt,
			Reason:       reason,
		},
	})
	return nil
}

func (c *Coordinator) resync(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, result *DeleteResult) error {
	synced, err := c.wallets.ResyncTx(ctx, tx, customerID)
	if err != nil {
		return err
	}
	result.Wallet = synced
	return nil
}

// emit queues an outbox event. Best effort: event loss never fails a cascade.
func (c *Coordinator) emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) {
	if c.events == nil {
		return
	}
	if err := c.events.Emit(ctx, tx, event); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "event_type", string(event.EventType)), "outbox event not queued")
	}
}

func reversalDescription(reason string) *string {
	text := "reversal of deleted transaction"
	if reason != "" {
		text = text + ": " + reason
	}
	return &text
}

func chargeDescription(packageName string, usedHours float64) *string {
	text := fmt.Sprintf("usage charge for package %q (%.2f hours)", packageName, usedHours)
	return &text
}
