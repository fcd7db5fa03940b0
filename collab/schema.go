package collab

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/storekit/adminagent/types"
)

// planEnvelopeSchema checks the overall shape of an extracted plan. Entity
// completeness is deliberately not enforced here: a missing entity is a
// policy outcome (ask the operator to clarify), not a parse failure.
const planEnvelopeSchema = `{
	"type": "object",
	"properties": {
		"intent": {
			"type": "string",
			"enum": [
				"UPDATE_PRODUCT_PRICE", "UPDATE_PRODUCT_DESCRIPTION",
				"ARCHIVE_PRODUCT", "CANCEL_ORDER", "UPDATE_ORDER_STATUS",
				"REFUND_ORDER", "RESET_INVENTORY",
				"LIST_PRODUCTS", "SHOW_PRODUCT", "LIST_ORDERS", "SHOW_ORDER",
				"LIST_PROMOTIONS", "UNKNOWN"
			]
		},
		"entities": {"type": "object"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	},
	"required": ["intent", "confidence"]
}`

// intentEntitySchemas type-check the entities an intent may carry. Prices
// also accept strings because models occasionally quote them; the entity
// helpers in the types package coerce those later.
var intentEntitySchemas = map[types.Intent]string{
	types.IntentUpdateProductPrice: `{
		"type": "object",
		"properties": {
			"sku": {"type": "string"},
			"newPrice": {"type": ["number", "string"]}
		}
	}`,
	types.IntentUpdateProductDescription: `{
		"type": "object",
		"properties": {
			"sku": {"type": "string"},
			"description": {"type": "string"}
		}
	}`,
	types.IntentArchiveProduct: `{
		"type": "object",
		"properties": {"sku": {"type": "string"}}
	}`,
	types.IntentCancelOrder: `{
		"type": "object",
		"properties": {"orderNumber": {"type": ["string", "number"]}}
	}`,
	types.IntentUpdateOrderStatus: `{
		"type": "object",
		"properties": {
			"orderNumber": {"type": ["string", "number"]},
			"status": {"type": "string"}
		}
	}`,
	types.IntentRefundOrder: `{
		"type": "object",
		"properties": {"orderNumber": {"type": ["string", "number"]}}
	}`,
	types.IntentResetInventory: `{
		"type": "object",
		"properties": {"sku": {"type": "string"}}
	}`,
	types.IntentShowProduct: `{
		"type": "object",
		"properties": {"sku": {"type": "string"}}
	}`,
	types.IntentShowOrder: `{
		"type": "object",
		"properties": {"orderNumber": {"type": ["string", "number"]}}
	}`,
}

// PlanValidator validates extracted plans against the envelope and
// per-intent entity schemas. Schemas compile once at construction.
type PlanValidator struct {
	envelope *gojsonschema.Schema
	entities map[types.Intent]*gojsonschema.Schema
}

// NewPlanValidator compiles the plan schemas.
func NewPlanValidator() (*PlanValidator, error) {
	envelope, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(planEnvelopeSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling plan envelope schema: %w", err)
	}
	entities := make(map[types.Intent]*gojsonschema.Schema, len(intentEntitySchemas))
	for intent, raw := range intentEntitySchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compiling entity schema for %s: %w", intent, err)
		}
		entities[intent] = schema
	}
	return &PlanValidator{envelope: envelope, entities: entities}, nil
}

// Parse validates raw JSON against the schemas and decodes it into a plan.
func (v *PlanValidator) Parse(raw []byte) (*types.Plan, error) {
	if err := v.check(v.envelope, raw, "plan"); err != nil {
		return nil, err
	}

	var plan types.Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	if plan.Entities == nil {
		plan.Entities = map[string]any{}
	}

	if schema, ok := v.entities[plan.Intent]; ok {
		encoded, err := json.Marshal(plan.Entities)
		if err != nil {
			return nil, fmt.Errorf("re-encoding entities: %w", err)
		}
		if err := v.check(schema, encoded, string(plan.Intent)+" entities"); err != nil {
			return nil, err
		}
	}
	return &plan, nil
}

func (v *PlanValidator) check(schema *gojsonschema.Schema, raw []byte, what string) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validating %s: %w", what, err)
	}
	if result.Valid() {
		return nil
	}
	details := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		details[i] = desc.String()
	}
	return fmt.Errorf("%s failed schema validation: %s", what, strings.Join(details, "; "))
}
