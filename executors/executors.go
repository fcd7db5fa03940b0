// Package executors performs the store mutations and reads that approved
// plans call for. Executors trust their input: by the time a plan reaches
// them it has passed validation and policy, so they only re-resolve the
// target record and apply the change. A record disappearing between
// validation and execution surfaces as a failed result, not a panic.
package executors

import (
	"context"
	"fmt"
	"strings"

	"github.com/storekit/adminagent/logger"
	"github.com/storekit/adminagent/store"
	"github.com/storekit/adminagent/types"
)

// Registry maps intents to their executor functions.
type Registry struct {
	catalog  *store.Catalog
	byIntent map[types.Intent]func(ctx context.Context, entities map[string]any) *types.ExecutionResult
}

// NewRegistry builds the standard executor set over a catalog.
func NewRegistry(catalog *store.Catalog) *Registry {
	r := &Registry{catalog: catalog}
	r.byIntent = map[types.Intent]func(ctx context.Context, entities map[string]any) *types.ExecutionResult{
		types.IntentUpdateProductPrice:       r.updateProductPrice,
		types.IntentUpdateProductDescription: r.updateProductDescription,
		types.IntentArchiveProduct:           r.archiveProduct,
		types.IntentCancelOrder:              r.cancelOrder,
		types.IntentUpdateOrderStatus:        r.updateOrderStatus,
		types.IntentRefundOrder:              r.refundOrder,
		types.IntentResetInventory:           r.resetInventory,
		types.IntentListProducts:             r.listProducts,
		types.IntentShowProduct:              r.showProduct,
		types.IntentListOrders:               r.listOrders,
		types.IntentShowOrder:                r.showOrder,
		types.IntentListPromotions:           r.listPromotions,
	}
	return r
}

// Supports reports whether an executor exists for the intent.
func (r *Registry) Supports(intent types.Intent) bool {
	_, ok := r.byIntent[intent]
	return ok
}

// Execute dispatches to the intent's executor. Unknown intents come back
// as failed results so the orchestrator handles them uniformly.
func (r *Registry) Execute(ctx context.Context, intent types.Intent, entities map[string]any) *types.ExecutionResult {
	exec, ok := r.byIntent[intent]
	if !ok {
		return failure("no executor for intent %s", intent)
	}
	result := exec(ctx, entities)
	logger.InfoContext(ctx, "executor finished",
		"intent", string(intent),
		"success", result.Success)
	return result
}

func (r *Registry) updateProductPrice(ctx context.Context, entities map[string]any) *types.ExecutionResult {
	sku, ok := types.EntityString(entities, "sku")
	if !ok {
		return failure("missing sku")
	}
	newPrice, ok := types.EntityFloat(entities, "newPrice")
	if !ok {
		return failure("missing newPrice")
	}

	product, found, err := r.catalog.ProductBySKU(sku)
	if err != nil {
		return failure("loading product %s: %v", sku, err)
	}
	if !found {
		return failure("product %s no longer exists", sku)
	}

	updated, stillThere, err := r.catalog.Products.Update(product.ID, map[string]any{"price": newPrice})
	if err != nil {
		return failure("updating product %s: %v", sku, err)
	}
	if !stillThere {
		return failure("product %s no longer exists", sku)
	}
	return success(map[string]any{
		"sku":       sku,
		"title":     updated.Title,
		"old_price": product.Price,
		"new_price": updated.Price,
	})
}

func (r *Registry) updateProductDescription(ctx context.Context, entities map[string]any) *types.ExecutionResult {
	sku, ok := types.EntityString(entities, "sku")
	if !ok {
		return failure("missing sku")
	}
	description, ok := types.EntityString(entities, "description")
	if !ok {
		return failure("missing description")
	}

	product, found, err := r.catalog.ProductBySKU(sku)
	if err != nil {
		return failure("loading product %s: %v", sku, err)
	}
	if !found {
		return failure("product %s no longer exists", sku)
	}

	updated, stillThere, err := r.catalog.Products.Update(product.ID, map[string]any{"description": description})
	if err != nil {
		return failure("updating product %s: %v", sku, err)
	}
	if !stillThere {
		return failure("product %s no longer exists", sku)
	}
	return success(map[string]any{
		"sku":         sku,
		"title":       updated.Title,
		"description": updated.Description,
	})
}

func (r *Registry) archiveProduct(ctx context.Context, entities map[string]any) *types.ExecutionResult {
	sku, ok := types.EntityString(entities, "sku")
	if !ok {
		return failure("missing sku")
	}

	product, found, err := r.catalog.ProductBySKU(sku)
	if err != nil {
		return failure("loading product %s: %v", sku, err)
	}
	if !found {
		return failure("product %s no longer exists", sku)
	}

	updated, stillThere, err := r.catalog.Products.Update(product.ID, map[string]any{"status": string(types.ProductArchived)})
	if err != nil {
		return failure("archiving product %s: %v", sku, err)
	}
	if !stillThere {
		return failure("product %s no longer exists", sku)
	}
	return success(map[string]any{
		"sku":             sku,
		"title":           updated.Title,
		"previous_status": string(product.Status),
		"status":          string(updated.Status),
	})
}

func (r *Registry) resetInventory(ctx context.Context, entities map[string]any) *types.ExecutionResult {
	sku, ok := types.EntityString(entities, "sku")
	if !ok {
		return failure("missing sku")
	}

	product, found, err := r.catalog.ProductBySKU(sku)
	if err != nil {
		return failure("loading product %s: %v", sku, err)
	}
	if !found {
		return failure("product %s no longer exists", sku)
	}

	updated, stillThere, err := r.catalog.Products.Update(product.ID, map[string]any{"inventory": 0})
	if err != nil {
		return failure("resetting inventory for %s: %v", sku, err)
	}
	if !stillThere {
		return failure("product %s no longer exists", sku)
	}
	return success(map[string]any{
		"sku":                sku,
		"title":              updated.Title,
		"previous_inventory": product.Inventory,
		"inventory":          updated.Inventory,
	})
}

func (r *Registry) cancelOrder(ctx context.Context, entities map[string]any) *types.ExecutionResult {
	number, ok := types.EntityString(entities, "orderNumber")
	if !ok {
		return failure("missing orderNumber")
	}

	order, found, err := r.catalog.OrderByNumber(number)
	if err != nil {
		return failure("loading order %s: %v", number, err)
	}
	if !found {
		return failure("order %s no longer exists", number)
	}

	updated, stillThere, err := r.catalog.Orders.Update(order.ID, map[string]any{"status": string(types.OrderCancelled)})
	if err != nil {
		return failure("cancelling order %s: %v", number, err)
	}
	if !stillThere {
		return failure("order %s no longer exists", number)
	}
	return success(map[string]any{
		"order_number":    number,
		"previous_status": string(order.Status),
		"status":          string(updated.Status),
	})
}

func (r *Registry) updateOrderStatus(ctx context.Context, entities map[string]any) *types.ExecutionResult {
	number, ok := types.EntityString(entities, "orderNumber")
	if !ok {
		return failure("missing orderNumber")
	}
	status, ok := types.EntityString(entities, "status")
	if !ok {
		return failure("missing status")
	}

	order, found, err := r.catalog.OrderByNumber(number)
	if err != nil {
		return failure("loading order %s: %v", number, err)
	}
	if !found {
		return failure("order %s no longer exists", number)
	}

	updated, stillThere, err := r.catalog.Orders.Update(order.ID, map[string]any{"status": strings.ToLower(status)})
	if err != nil {
		return failure("updating order %s: %v", number, err)
	}
	if !stillThere {
		return failure("order %s no longer exists", number)
	}
	return success(map[string]any{
		"order_number":    number,
		"previous_status": string(order.Status),
		"status":          string(updated.Status),
	})
}

func (r *Registry) refundOrder(ctx context.Context, entities map[string]any) *types.ExecutionResult {
	number, ok := types.EntityString(entities, "orderNumber")
	if !ok {
		return failure("missing orderNumber")
	}

	order, found, err := r.catalog.OrderByNumber(number)
	if err != nil {
		return failure("loading order %s: %v", number, err)
	}
	if !found {
		return failure("order %s no longer exists", number)
	}

	updated, stillThere, err := r.catalog.Orders.Update(order.ID, map[string]any{
		"status":         string(types.OrderRefunded),
		"payment_status": string(types.PaymentRefunded),
	})
	if err != nil {
		return failure("refunding order %s: %v", number, err)
	}
	if !stillThere {
		return failure("order %s no longer exists", number)
	}
	return success(map[string]any{
		"order_number":    number,
		"previous_status": string(order.Status),
		"status":          string(updated.Status),
		"refunded_total":  order.Total,
	})
}

func (r *Registry) listProducts(ctx context.Context, entities map[string]any) *types.ExecutionResult {
	status, hasStatus := types.EntityString(entities, "status")
	products, err := r.catalog.Products.Find(func(p types.Product) bool {
		return !hasStatus || string(p.Status) == strings.ToLower(status)
	})
	if err != nil {
		return failure("listing products: %v", err)
	}
	summaries := make([]map[string]any, len(products))
	for i, p := range products {
		summaries[i] = productData(p)
	}
	return success(map[string]any{"products": summaries, "count": len(summaries)})
}

func (r *Registry) showProduct(ctx context.Context, entities map[string]any) *types.ExecutionResult {
	sku, ok := types.EntityString(entities, "sku")
	if !ok {
		return failure("missing sku")
	}
	product, found, err := r.catalog.ProductBySKU(sku)
	if err != nil {
		return failure("loading product %s: %v", sku, err)
	}
	if !found {
		return failure("product %s not found", sku)
	}
	return success(productData(product))
}

func (r *Registry) listOrders(ctx context.Context, entities map[string]any) *types.ExecutionResult {
	status, hasStatus := types.EntityString(entities, "status")
	orders, err := r.catalog.Orders.Find(func(o types.Order) bool {
		return !hasStatus || string(o.Status) == strings.ToLower(status)
	})
	if err != nil {
		return failure("listing orders: %v", err)
	}
	summaries := make([]map[string]any, len(orders))
	for i, o := range orders {
		summaries[i] = orderData(o)
	}
	return success(map[string]any{"orders": summaries, "count": len(summaries)})
}

func (r *Registry) showOrder(ctx context.Context, entities map[string]any) *types.ExecutionResult {
	number, ok := types.EntityString(entities, "orderNumber")
	if !ok {
		return failure("missing orderNumber")
	}
	order, found, err := r.catalog.OrderByNumber(number)
	if err != nil {
		return failure("loading order %s: %v", number, err)
	}
	if !found {
		return failure("order %s not found", number)
	}
	return success(orderData(order))
}

func (r *Registry) listPromotions(ctx context.Context, entities map[string]any) *types.ExecutionResult {
	promos, err := r.catalog.Promotions.GetAll()
	if err != nil {
		return failure("listing promotions: %v", err)
	}
	summaries := make([]map[string]any, len(promos))
	for i, p := range promos {
		summaries[i] = map[string]any{
			"code":         p.Code,
			"description":  p.Description,
			"discount_pct": p.DiscountPct,
			"active":       p.Active,
		}
	}
	return success(map[string]any{"promotions": summaries, "count": len(summaries)})
}

func productData(p types.Product) map[string]any {
	return map[string]any{
		"sku":       p.SKU,
		"title":     p.Title,
		"price":     p.Price,
		"inventory": p.Inventory,
		"status":    string(p.Status),
	}
}

func orderData(o types.Order) map[string]any {
	return map[string]any{
		"order_number": o.OrderNumber,
		"customer":     o.Customer,
		"status":       string(o.Status),
		"total":        o.Total,
	}
}

func success(data map[string]any) *types.ExecutionResult {
	return &types.ExecutionResult{Success: true, Data: data}
}

func failure(format string, args ...any) *types.ExecutionResult {
	return &types.ExecutionResult{Success: false, Error: fmt.Sprintf(format, args...)}
}
