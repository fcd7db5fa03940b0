package types

// Intent is a closed-set classification of what the user wants done.
// Values match the extractor's output vocabulary.
type Intent string

// Mutating intents.
const (
	IntentUpdateProductPrice       Intent = "UPDATE_PRODUCT_PRICE"
	IntentUpdateProductDescription Intent = "UPDATE_PRODUCT_DESCRIPTION"
	IntentArchiveProduct           Intent = "ARCHIVE_PRODUCT"
	IntentCancelOrder              Intent = "CANCEL_ORDER"
	IntentUpdateOrderStatus        Intent = "UPDATE_ORDER_STATUS"
	IntentRefundOrder              Intent = "REFUND_ORDER"
	IntentResetInventory           Intent = "RESET_INVENTORY"
)

// Read-only intents. These skip validation and policy entirely.
const (
	IntentListProducts   Intent = "LIST_PRODUCTS"
	IntentShowProduct    Intent = "SHOW_PRODUCT"
	IntentListOrders     Intent = "LIST_ORDERS"
	IntentShowOrder      Intent = "SHOW_ORDER"
	IntentListPromotions Intent = "LIST_PROMOTIONS"
	IntentUnknown        Intent = "UNKNOWN"
)

var readOnlyIntents = map[Intent]bool{
	IntentListProducts:   true,
	IntentShowProduct:    true,
	IntentListOrders:     true,
	IntentShowOrder:      true,
	IntentListPromotions: true,
}

// IsReadOnly reports whether the intent performs no mutation.
func (i Intent) IsReadOnly() bool {
	return readOnlyIntents[i]
}

// RiskFlag identifies the guard that flagged a validated plan as risky.
type RiskFlag string

// Risk flags produced by the validation stage.
const (
	RiskNone         RiskFlag = ""
	RiskPriceOutlier RiskFlag = "PRICE_OUTLIER"
)
