package transactions

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aydindemir/driftops-backend/internal/packages"
	"github.com/aydindemir/driftops-backend/pkg/enums"
	"github.com/aydindemir/driftops-backend/pkg/errors"
)

// CascadeOption is the caller-supplied disposition for one linked package.
type CascadeOption struct {
	PackageID     uuid.UUID `json:"package_id" validate:"required"`
	Strategy      string    `json:"strategy,omitempty"`
	AllowNegative *bool     `json:"allow_negative,omitempty"`
}

// ResolvedStrategy is the final disposition for a package inside a cascade.
type ResolvedStrategy struct {
	PackageID     uuid.UUID             `json:"package_id"`
	Strategy      enums.CascadeStrategy `json:"strategy"`
	AllowNegative bool                  `json:"allow_negative"`
}

// packagePhase tracks a single package through one cascade. Pending moves to
// exactly one of ChargedUsed or LessonsDeleted, then Finalized; a package is
// never both charged and stripped of its lessons in the same cascade.
type packagePhase string

const (
	phasePending        packagePhase = "pending"
	phaseChargedUsed    packagePhase = "charged_used"
	phaseLessonsDeleted packagePhase = "lessons_deleted"
	phaseFinalized      packagePhase = "finalized"
)

func (p packagePhase) canTransition(next packagePhase) bool {
	switch p {
	case phasePending:
		return next == phaseChargedUsed || next == phaseLessonsDeleted
	case phaseChargedUsed, phaseLessonsDeleted:
		return next == phaseFinalized
	default:
		return false
	}
}

// ResolveStrategy decides a package's disposition. The default follows usage:
// consumed hours mean the customer owes for them, untouched packages just lose
// their lessons. A caller-supplied strategy wins only when it is one of the
// known values; anything else is rejected before any mutation happens.
func ResolveStrategy(packageID uuid.UUID, usage packages.Usage, option *CascadeOption) (ResolvedStrategy, error) {
	resolved := ResolvedStrategy{
		PackageID:     packageID,
		AllowNegative: true,
	}

	if usage.UsedHours > 0 {
		resolved.Strategy = enums.CascadeStrategyChargeUsed
	} else {
		resolved.Strategy = enums.CascadeStrategyDeleteAllLessons
	}

	if option == nil {
		return resolved, nil
	}

	if option.Strategy != "" {
		strategy, err := enums.ParseCascadeStrategy(option.Strategy)
		if err != nil {
			return ResolvedStrategy{}, errors.New(errors.CodeValidation,
				fmt.Sprintf("invalid cascade strategy %q for package %s", option.Strategy, packageID))
		}
		resolved.Strategy = strategy
	}
	if option.AllowNegative != nil {
		resolved.AllowNegative = *option.AllowNegative
	}
	return resolved, nil
}

// DefaultStrategies derives the default disposition for every package in a
// dependency set, for the review step of a deletion.
func DefaultStrategies(deps DependencySet) []ResolvedStrategy {
	if len(deps.Packages) == 0 {
		return nil
	}
	strategies := make([]ResolvedStrategy, 0, len(deps.Packages))
	for idx := range deps.Packages {
		pkg := deps.Packages[idx]
		usage := packages.ExtractUsage(&pkg)
		resolved, _ := ResolveStrategy(pkg.ID, usage, nil)
		strategies = append(strategies, resolved)
	}
	return strategies
}
