// Package validation implements the deterministic per-intent validation
// stage. It combines entity-existence checks against the record store with
// the guards package, producing a ValidationResult.
//
// Business-rule failures are reported inside the result, never as errors;
// only structurally malformed input (a plan with no intent) and store I/O
// failures return a Go error.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/storekit/adminagent/guards"
	"github.com/storekit/adminagent/store"
	"github.com/storekit/adminagent/types"
)

// ErrMalformedPlan is returned for structurally invalid plans (no intent).
var ErrMalformedPlan = errors.New("plan is missing an intent")

// Stage validates plans against the current store state.
type Stage struct {
	catalog            *store.Catalog
	deviationThreshold float64
}

// Option configures a Stage.
type Option func(*Stage)

// WithDeviationThreshold overrides the price outlier threshold percentage.
func WithDeviationThreshold(pct float64) Option {
	return func(s *Stage) { s.deviationThreshold = pct }
}

// NewStage creates a validation stage over the given catalog.
func NewStage(catalog *store.Catalog, opts ...Option) *Stage {
	s := &Stage{
		catalog:            catalog,
		deviationThreshold: guards.DefaultPriceDeviationThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate dispatches on the plan's intent and returns its verdict.
// Intents the stage does not model are vacuously valid: the policy engine
// still gets a chance to demand confirmation for them.
func (s *Stage) Validate(plan *types.Plan) (*types.ValidationResult, error) {
	if plan == nil || plan.Intent == "" {
		return nil, ErrMalformedPlan
	}

	if plan.Intent.IsReadOnly() {
		return &types.ValidationResult{Valid: true}, nil
	}

	switch plan.Intent {
	case types.IntentUpdateProductPrice:
		return s.validatePriceUpdate(plan)
	case types.IntentCancelOrder:
		return s.validateOrderCancellation(plan)
	case types.IntentUpdateOrderStatus:
		return s.validateOrderStatusUpdate(plan)
	case types.IntentUpdateProductDescription:
		return s.validateDescriptionUpdate(plan)
	case types.IntentArchiveProduct:
		return s.validateArchive(plan)
	case types.IntentResetInventory:
		return s.validateInventoryReset(plan)
	default:
		return &types.ValidationResult{Valid: true}, nil
	}
}

func (s *Stage) validatePriceUpdate(plan *types.Plan) (*types.ValidationResult, error) {
	result := &types.ValidationResult{}

	sku, hasSKU := types.EntityString(plan.Entities, "sku")
	newPrice, hasPrice := types.EntityFloat(plan.Entities, "newPrice")
	if !hasSKU {
		result.Errors = append(result.Errors, "missing required entity: sku")
	}
	if !hasPrice {
		result.Errors = append(result.Errors, "missing required entity: newPrice")
	}
	if len(result.Errors) > 0 {
		return result, nil
	}

	product, found, err := s.catalog.ProductBySKU(sku)
	if err != nil {
		return nil, err
	}
	if !found {
		result.Errors = append(result.Errors, fmt.Sprintf("product with SKU %q not found", sku))
		return result, nil
	}
	if product.Status != types.ProductActive {
		result.Errors = append(result.Errors,
			fmt.Sprintf("product %q is %s; only active products can be repriced", sku, product.Status))
		return result, nil
	}
	if newPrice < 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("new price must not be negative, got %v", newPrice))
		return result, nil
	}

	result.Valid = true
	outlier := guards.CheckPriceOutlierThreshold(product.Price, newPrice, s.deviationThreshold)
	if outlier.IsOutlier {
		result.RiskFlag = types.RiskPriceOutlier
		result.RequiresConfirmation = true
		result.OldValue = product.Price
		result.NewValue = newPrice
	}
	if product.CostPrice > 0 && newPrice < product.CostPrice {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("new price %v is below cost price %v", newPrice, product.CostPrice))
	}
	return result, nil
}

func (s *Stage) validateOrderCancellation(plan *types.Plan) (*types.ValidationResult, error) {
	result := &types.ValidationResult{}

	number, ok := types.EntityString(plan.Entities, "orderNumber")
	if !ok {
		result.Errors = append(result.Errors, "missing required entity: orderNumber")
		return result, nil
	}

	order, found, err := s.catalog.OrderByNumber(number)
	if err != nil {
		return nil, err
	}
	if !found {
		result.Errors = append(result.Errors, fmt.Sprintf("order %q not found", number))
		return result, nil
	}

	// Any guard error is a hard stop for cancellation, including the
	// CANCELLATION_REQUIRES_REFUND soft error.
	if check := guards.ValidateCancellation(order); !check.Allowed {
		result.Errors = append(result.Errors, check.Message)
		return result, nil
	}

	result.Valid = true
	result.OldValue = string(order.Status)
	result.NewValue = string(types.OrderCancelled)
	return result, nil
}

func (s *Stage) validateOrderStatusUpdate(plan *types.Plan) (*types.ValidationResult, error) {
	result := &types.ValidationResult{}

	number, hasNumber := types.EntityString(plan.Entities, "orderNumber")
	status, hasStatus := types.EntityString(plan.Entities, "status")
	if !hasNumber {
		result.Errors = append(result.Errors, "missing required entity: orderNumber")
	}
	if !hasStatus {
		result.Errors = append(result.Errors, "missing required entity: status")
	}
	if len(result.Errors) > 0 {
		return result, nil
	}

	order, found, err := s.catalog.OrderByNumber(number)
	if err != nil {
		return nil, err
	}
	if !found {
		result.Errors = append(result.Errors, fmt.Sprintf("order %q not found", number))
		return result, nil
	}

	requested := types.OrderStatus(strings.ToLower(status))
	if check := guards.ValidateStatusTransition(order.Status, requested); !check.Allowed {
		result.Errors = append(result.Errors, check.Message)
		return result, nil
	}

	result.Valid = true
	result.OldValue = string(order.Status)
	result.NewValue = string(requested)
	return result, nil
}

func (s *Stage) validateDescriptionUpdate(plan *types.Plan) (*types.ValidationResult, error) {
	result := &types.ValidationResult{}

	sku, hasSKU := types.EntityString(plan.Entities, "sku")
	description, hasDescription := types.EntityString(plan.Entities, "description")
	if !hasSKU {
		result.Errors = append(result.Errors, "missing required entity: sku")
	}
	if !hasDescription || strings.TrimSpace(description) == "" {
		result.Errors = append(result.Errors, "missing required entity: description")
	}
	if len(result.Errors) > 0 {
		return result, nil
	}

	_, found, err := s.catalog.ProductBySKU(sku)
	if err != nil {
		return nil, err
	}
	if !found {
		result.Errors = append(result.Errors, fmt.Sprintf("product with SKU %q not found", sku))
		return result, nil
	}

	result.Valid = true
	return result, nil
}

func (s *Stage) validateArchive(plan *types.Plan) (*types.ValidationResult, error) {
	result := &types.ValidationResult{}

	sku, ok := types.EntityString(plan.Entities, "sku")
	if !ok {
		result.Errors = append(result.Errors, "missing required entity: sku")
		return result, nil
	}

	product, found, err := s.catalog.ProductBySKU(sku)
	if err != nil {
		return nil, err
	}
	if !found {
		result.Errors = append(result.Errors, fmt.Sprintf("product with SKU %q not found", sku))
		return result, nil
	}
	if product.Status == types.ProductArchived {
		result.Errors = append(result.Errors, fmt.Sprintf("product %q is already archived", sku))
		return result, nil
	}

	result.Valid = true
	result.OldValue = string(product.Status)
	result.NewValue = string(types.ProductArchived)
	return result, nil
}

func (s *Stage) validateInventoryReset(plan *types.Plan) (*types.ValidationResult, error) {
	result := &types.ValidationResult{}

	sku, ok := types.EntityString(plan.Entities, "sku")
	if !ok {
		result.Errors = append(result.Errors, "missing required entity: sku")
		return result, nil
	}

	product, found, err := s.catalog.ProductBySKU(sku)
	if err != nil {
		return nil, err
	}
	if !found {
		result.Errors = append(result.Errors, fmt.Sprintf("product with SKU %q not found", sku))
		return result, nil
	}
	if product.Inventory == 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("product %q inventory is already 0", sku))
	}

	result.Valid = true
	result.OldValue = product.Inventory
	result.NewValue = 0
	return result, nil
}
