package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/soyeahso/supportdesk/internal/store"
)

// Tool names, also used by the agents to select their subsets.
const (
	NameGetPolicyDetails     = "get_policy_details"
	NameGetAutoPolicyDetails = "get_auto_policy_details"
	NameGetBillingInfo       = "get_billing_info"
	NameGetPaymentHistory    = "get_payment_history"
	NameGetClaimStatus       = "get_claim_status"
)

// NewLookupRegistry builds the full registry of record lookup tools over
// the given database.
func NewLookupRegistry(db *store.DB) *Registry {
	r := NewRegistry()
	r.Register(&policyDetailsTool{db: db})
	r.Register(&autoPolicyDetailsTool{db: db})
	r.Register(&billingInfoTool{db: db})
	r.Register(&paymentHistoryTool{db: db})
	r.Register(&claimStatusTool{db: db})
	return r
}

type policyDetailsTool struct {
	db *store.DB
}

func (t *policyDetailsTool) Name() string { return NameGetPolicyDetails }

func (t *policyDetailsTool) Description() string {
	return "Fetch a customer's policy details by policy number, including holder name, coverage type, status, and premium."
}

func (t *policyDetailsTool) InputSchema() string {
	return `{
		"type": "object",
		"properties": {
			"policy_number": {"type": "string", "description": "The policy number, e.g. POL000004"}
		},
		"required": ["policy_number"]
	}`
}

func (t *policyDetailsTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		PolicyNumber string `json:"policy_number"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing %s input: %w", t.Name(), err)
	}

	rec, err := t.db.GetPolicyDetails(ctx, args.PolicyNumber)
	if errors.Is(err, store.ErrNotFound) {
		return errorPayload("Policy not found"), nil
	}
	if err != nil {
		return "", err
	}
	return jsonPayload(rec)
}

type autoPolicyDetailsTool struct {
	db *store.DB
}

func (t *autoPolicyDetailsTool) Name() string { return NameGetAutoPolicyDetails }

func (t *autoPolicyDetailsTool) Description() string {
	return "Get auto-specific policy details including vehicle info and deductibles."
}

func (t *autoPolicyDetailsTool) InputSchema() string {
	return `{
		"type": "object",
		"properties": {
			"policy_number": {"type": "string", "description": "The auto policy number"}
		},
		"required": ["policy_number"]
	}`
}

func (t *autoPolicyDetailsTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		PolicyNumber string `json:"policy_number"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing %s input: %w", t.Name(), err)
	}

	rec, err := t.db.GetAutoPolicyDetails(ctx, args.PolicyNumber)
	if errors.Is(err, store.ErrNotFound) {
		return errorPayload("Auto policy details not found"), nil
	}
	if err != nil {
		return "", err
	}
	return jsonPayload(rec)
}

type billingInfoTool struct {
	db *store.DB
}

func (t *billingInfoTool) Name() string { return NameGetBillingInfo }

func (t *billingInfoTool) Description() string {
	return "Get billing information including the current pending balance and due date. Accepts a policy number or a customer ID."
}

func (t *billingInfoTool) InputSchema() string {
	return `{
		"type": "object",
		"properties": {
			"policy_number": {"type": "string", "description": "The policy number"},
			"customer_id": {"type": "string", "description": "The customer ID"}
		}
	}`
}

func (t *billingInfoTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		PolicyNumber string `json:"policy_number"`
		CustomerID   string `json:"customer_id"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing %s input: %w", t.Name(), err)
	}

	rec, err := t.db.GetBillingInfo(ctx, args.PolicyNumber, args.CustomerID)
	if errors.Is(err, store.ErrNotFound) {
		return errorPayload("Billing information not found"), nil
	}
	if err != nil {
		return "", err
	}
	return jsonPayload(rec)
}

type paymentHistoryTool struct {
	db *store.DB
}

func (t *paymentHistoryTool) Name() string { return NameGetPaymentHistory }

func (t *paymentHistoryTool) Description() string {
	return "Get the payment history for a policy, newest first."
}

func (t *paymentHistoryTool) InputSchema() string {
	return `{
		"type": "object",
		"properties": {
			"policy_number": {"type": "string", "description": "The policy number"}
		},
		"required": ["policy_number"]
	}`
}

func (t *paymentHistoryTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		PolicyNumber string `json:"policy_number"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing %s input: %w", t.Name(), err)
	}

	// No payments is a valid result: an empty list, not an error.
	payments, err := t.db.GetPaymentHistory(ctx, args.PolicyNumber)
	if err != nil {
		return "", err
	}
	return jsonPayload(payments)
}

type claimStatusTool struct {
	db *store.DB
}

func (t *claimStatusTool) Name() string { return NameGetClaimStatus }

func (t *claimStatusTool) Description() string {
	return "Get claim status and details by claim ID, or the most recent claims on a policy."
}

func (t *claimStatusTool) InputSchema() string {
	return `{
		"type": "object",
		"properties": {
			"claim_id": {"type": "string", "description": "The claim ID, e.g. CLM000001"},
			"policy_number": {"type": "string", "description": "The policy number to list recent claims for"}
		}
	}`
}

func (t *claimStatusTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		ClaimID      string `json:"claim_id"`
		PolicyNumber string `json:"policy_number"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing %s input: %w", t.Name(), err)
	}

	claims, err := t.db.GetClaimStatus(ctx, args.ClaimID, args.PolicyNumber)
	if errors.Is(err, store.ErrNotFound) {
		return errorPayload("Claim not found"), nil
	}
	if err != nil {
		return "", err
	}
	return jsonPayload(claims)
}
