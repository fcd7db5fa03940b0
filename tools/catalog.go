package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/storekit/adminagent/store"
	"github.com/storekit/adminagent/types"
)

const defaultListLimit = 25

// CatalogRegistry builds the standard read-only tool set over a catalog:
// point lookups by SKU and order number, filtered listings, and a title
// substring search. These are the only store accesses the extractor gets.
func CatalogRegistry(catalog *store.Catalog) (*Registry, error) {
	r := NewRegistry()

	tools := []*Tool{
		{
			Descriptor: Descriptor{
				Name:        "lookup_product",
				Description: "Fetch a single product by its SKU. Returns the product's title, price, inventory, and status.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"sku": {"type": "string", "description": "Product SKU, e.g. HP-BLK-001"}
					},
					"required": ["sku"],
					"additionalProperties": false
				}`),
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				sku, _ := types.EntityString(args, "sku")
				product, found, err := catalog.ProductBySKU(sku)
				if err != nil {
					return nil, err
				}
				if !found {
					return map[string]any{"found": false, "sku": sku}, nil
				}
				return productSummary(product), nil
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "lookup_order",
				Description: "Fetch a single order by its order number. Returns the order's status, payment state, fulfillment state, and total.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"orderNumber": {"type": "string", "description": "Order number, e.g. 1001"}
					},
					"required": ["orderNumber"],
					"additionalProperties": false
				}`),
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				number, _ := types.EntityString(args, "orderNumber")
				order, found, err := catalog.OrderByNumber(number)
				if err != nil {
					return nil, err
				}
				if !found {
					return map[string]any{"found": false, "orderNumber": number}, nil
				}
				return orderSummary(order), nil
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "list_products",
				Description: "List products, optionally filtered by status (active, draft, archived).",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"status": {"type": "string", "enum": ["active", "draft", "archived"]},
						"limit": {"type": "integer", "minimum": 1, "maximum": 100}
					},
					"additionalProperties": false
				}`),
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				status, hasStatus := types.EntityString(args, "status")
				products, err := catalog.Products.Find(func(p types.Product) bool {
					return !hasStatus || string(p.Status) == status
				})
				if err != nil {
					return nil, err
				}
				limit := intArg(args, "limit", defaultListLimit)
				return listResult("products", products, limit, productSummary), nil
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "list_orders",
				Description: "List orders, optionally filtered by status (pending, confirmed, processing, shipped, delivered, completed, cancelled, refunded, and similar).",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"status": {"type": "string"},
						"limit": {"type": "integer", "minimum": 1, "maximum": 100}
					},
					"additionalProperties": false
				}`),
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				status, hasStatus := types.EntityString(args, "status")
				orders, err := catalog.Orders.Find(func(o types.Order) bool {
					return !hasStatus || string(o.Status) == strings.ToLower(status)
				})
				if err != nil {
					return nil, err
				}
				limit := intArg(args, "limit", defaultListLimit)
				return listResult("orders", orders, limit, orderSummary), nil
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "search_products",
				Description: "Search products whose title or SKU contains the query, case-insensitively.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"query": {"type": "string", "minLength": 1},
						"limit": {"type": "integer", "minimum": 1, "maximum": 100}
					},
					"required": ["query"],
					"additionalProperties": false
				}`),
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				query, _ := types.EntityString(args, "query")
				needle := strings.ToLower(query)
				products, err := catalog.Products.Find(func(p types.Product) bool {
					return strings.Contains(strings.ToLower(p.Title), needle) ||
						strings.Contains(strings.ToLower(p.SKU), needle)
				})
				if err != nil {
					return nil, err
				}
				limit := intArg(args, "limit", defaultListLimit)
				return listResult("products", products, limit, productSummary), nil
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "list_promotions",
				Description: "List the promotions currently on record.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {},
					"additionalProperties": false
				}`),
			},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				promos, err := catalog.Promotions.GetAll()
				if err != nil {
					return nil, err
				}
				return listResult("promotions", promos, defaultListLimit, promotionSummary), nil
			},
		},
	}

	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return nil, fmt.Errorf("registering catalog tools: %w", err)
		}
	}
	return r, nil
}

func productSummary(p types.Product) map[string]any {
	return map[string]any{
		"found":     true,
		"sku":       p.SKU,
		"title":     p.Title,
		"price":     p.Price,
		"inventory": p.Inventory,
		"status":    string(p.Status),
	}
}

func orderSummary(o types.Order) map[string]any {
	return map[string]any{
		"found":       true,
		"orderNumber": o.OrderNumber,
		"customer":    o.Customer,
		"status":      string(o.Status),
		"payment":     string(o.Payment),
		"fulfillment": string(o.Fulfillment),
		"total":       o.Total,
	}
}

func promotionSummary(p types.Promotion) map[string]any {
	return map[string]any{
		"code":        p.Code,
		"description": p.Description,
		"discountPct": p.DiscountPct,
		"active":      p.Active,
	}
}

func listResult[T any](key string, items []T, limit int, summarize func(T) map[string]any) map[string]any {
	total := len(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	summaries := make([]map[string]any, len(items))
	for i, item := range items {
		summaries[i] = summarize(item)
	}
	return map[string]any{key: summaries, "count": total, "returned": len(summaries)}
}

func intArg(args map[string]any, key string, fallback int) int {
	if v, ok := args[key].(float64); ok && v > 0 {
		return int(v)
	}
	return fallback
}
