package model

import "time"

const CollectionAccountantActivity = "accountant_activity"

const (
	ActionReconcileLedger = "RECONCILE_LEDGER"
	ActionRecordPayment   = "RECORD_PAYMENT"
	ActionSystemReset     = "SYSTEM_RESET"
	ActionFeeRuleCreate   = "FEE_RULE_CREATE"
	ActionFeeRuleUpdate   = "FEE_RULE_UPDATE"
	ActionFeeRuleDelete   = "FEE_RULE_DELETE"
)

// --- MODEL accountant_activity (append-only) --------------------------------
type AccountantActivity struct {
	AccountantActivityID         string         `json:"accountant_activity_id"`
	AccountantActivityOperatorID string         `json:"accountant_activity_operator_id"`
	AccountantActivityAction     string         `json:"accountant_activity_action"`
	AccountantActivityDetails    map[string]any `json:"accountant_activity_details,omitempty"`
	AccountantActivityTimestamp  time.Time      `json:"accountant_activity_timestamp"`
	// untuk order by di store (string RFC3339 tidak selalu urut secara leksikal)
	AccountantActivityUnixMs int64 `json:"accountant_activity_unix_ms"`
}
