package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PolicyRecord is a policy joined with its holder's name.
type PolicyRecord struct {
	PolicyNumber     string  `json:"policy_number"`
	CustomerID       string  `json:"customer_id"`
	PolicyType       string  `json:"policy_type"`
	Status           string  `json:"status"`
	PremiumAmount    float64 `json:"premium_amount"`
	BillingFrequency string  `json:"billing_frequency"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
}

// AutoPolicyRecord is vehicle-specific detail joined with the base policy.
type AutoPolicyRecord struct {
	PolicyNumber            string  `json:"policy_number"`
	VehicleMake             string  `json:"vehicle_make"`
	VehicleModel            string  `json:"vehicle_model"`
	VehicleYear             int     `json:"vehicle_year"`
	VIN                     string  `json:"vin"`
	CollisionDeductible     float64 `json:"collision_deductible"`
	ComprehensiveDeductible float64 `json:"comprehensive_deductible"`
	PolicyType              string  `json:"policy_type"`
	PremiumAmount           float64 `json:"premium_amount"`
}

// BillingRecord is the most recent pending bill joined with premium terms.
type BillingRecord struct {
	BillID           string  `json:"bill_id"`
	PolicyNumber     string  `json:"policy_number"`
	AmountDue        float64 `json:"amount_due"`
	DueDate          string  `json:"due_date"`
	Status           string  `json:"status"`
	PremiumAmount    float64 `json:"premium_amount"`
	BillingFrequency string  `json:"billing_frequency"`
}

// PaymentRecord is one entry in a policy's payment history.
type PaymentRecord struct {
	PaymentDate   string  `json:"payment_date"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"payment_method"`
}

// ClaimRecord is a claim joined with its policy's type.
type ClaimRecord struct {
	ClaimID       string  `json:"claim_id"`
	PolicyNumber  string  `json:"policy_number"`
	ClaimDate     string  `json:"claim_date"`
	ClaimType     string  `json:"claim_type"`
	Status        string  `json:"status"`
	AmountClaimed float64 `json:"amount_claimed"`
	Description   string  `json:"description"`
	PolicyType    string  `json:"policy_type"`
}

// GetPolicyDetails fetches a policy by policy number.
func (db *DB) GetPolicyDetails(ctx context.Context, policyNumber string) (*PolicyRecord, error) {
	var r PolicyRecord
	err := db.sql.QueryRowContext(ctx, `
		SELECT p.policy_number, p.customer_id, p.policy_type, p.status,
		       p.premium_amount, p.billing_frequency, p.start_date, p.end_date,
		       c.first_name, c.last_name
		FROM policies p
		JOIN customers c ON p.customer_id = c.customer_id
		WHERE p.policy_number = ?
	`, policyNumber).Scan(
		&r.PolicyNumber, &r.CustomerID, &r.PolicyType, &r.Status,
		&r.PremiumAmount, &r.BillingFrequency, &r.StartDate, &r.EndDate,
		&r.FirstName, &r.LastName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying policy %s: %w", policyNumber, err)
	}
	return &r, nil
}

// GetAutoPolicyDetails fetches vehicle-specific detail for an auto policy.
func (db *DB) GetAutoPolicyDetails(ctx context.Context, policyNumber string) (*AutoPolicyRecord, error) {
	var r AutoPolicyRecord
	err := db.sql.QueryRowContext(ctx, `
		SELECT apd.policy_number, apd.vehicle_make, apd.vehicle_model, apd.vehicle_year,
		       apd.vin, apd.collision_deductible, apd.comprehensive_deductible,
		       p.policy_type, p.premium_amount
		FROM auto_policy_details apd
		JOIN policies p ON apd.policy_number = p.policy_number
		WHERE apd.policy_number = ?
	`, policyNumber).Scan(
		&r.PolicyNumber, &r.VehicleMake, &r.VehicleModel, &r.VehicleYear,
		&r.VIN, &r.CollisionDeductible, &r.ComprehensiveDeductible,
		&r.PolicyType, &r.PremiumAmount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying auto policy %s: %w", policyNumber, err)
	}
	return &r, nil
}

// GetBillingInfo returns the most recent pending bill for a policy or a
// customer. Exactly one of the identifiers should be set; policy number
// wins when both are.
func (db *DB) GetBillingInfo(ctx context.Context, policyNumber, customerID string) (*BillingRecord, error) {
	query := `
		SELECT b.bill_id, b.policy_number, b.amount_due, b.due_date, b.status,
		       p.premium_amount, p.billing_frequency
		FROM billing b
		JOIN policies p ON b.policy_number = p.policy_number
		WHERE %s AND b.status = 'pending'
		ORDER BY b.due_date DESC LIMIT 1
	`
	var row *sql.Row
	switch {
	case policyNumber != "":
		row = db.sql.QueryRowContext(ctx, fmt.Sprintf(query, "b.policy_number = ?"), policyNumber)
	case customerID != "":
		row = db.sql.QueryRowContext(ctx, fmt.Sprintf(query, "p.customer_id = ?"), customerID)
	default:
		return nil, ErrNotFound
	}

	var r BillingRecord
	err := row.Scan(
		&r.BillID, &r.PolicyNumber, &r.AmountDue, &r.DueDate, &r.Status,
		&r.PremiumAmount, &r.BillingFrequency,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying billing: %w", err)
	}
	return &r, nil
}

// GetPaymentHistory returns the last 10 payments on a policy, newest first.
// A policy with no payments yields an empty slice, not an error.
func (db *DB) GetPaymentHistory(ctx context.Context, policyNumber string) ([]PaymentRecord, error) {
	rows, err := db.sql.QueryContext(ctx, `
		SELECT p.payment_date, p.amount, p.status, p.payment_method
		FROM payments p
		JOIN billing b ON p.bill_id = b.bill_id
		WHERE b.policy_number = ?
		ORDER BY p.payment_date DESC LIMIT 10
	`, policyNumber)
	if err != nil {
		return nil, fmt.Errorf("querying payments for %s: %w", policyNumber, err)
	}
	defer rows.Close()

	payments := []PaymentRecord{}
	for rows.Next() {
		var r PaymentRecord
		if err := rows.Scan(&r.PaymentDate, &r.Amount, &r.Status, &r.PaymentMethod); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		payments = append(payments, r)
	}
	return payments, rows.Err()
}

// GetClaimStatus looks up claims by claim ID, or the three most recent
// claims on a policy when only the policy number is known.
func (db *DB) GetClaimStatus(ctx context.Context, claimID, policyNumber string) ([]ClaimRecord, error) {
	var rows *sql.Rows
	var err error
	switch {
	case claimID != "":
		rows, err = db.sql.QueryContext(ctx, `
			SELECT c.claim_id, c.policy_number, c.claim_date, c.claim_type,
			       c.status, c.amount_claimed, c.description, p.policy_type
			FROM claims c
			JOIN policies p ON c.policy_number = p.policy_number
			WHERE c.claim_id = ?
		`, claimID)
	case policyNumber != "":
		rows, err = db.sql.QueryContext(ctx, `
			SELECT c.claim_id, c.policy_number, c.claim_date, c.claim_type,
			       c.status, c.amount_claimed, c.description, p.policy_type
			FROM claims c
			JOIN policies p ON c.policy_number = p.policy_number
			WHERE c.policy_number = ?
			ORDER BY c.claim_date DESC LIMIT 3
		`, policyNumber)
	default:
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying claims: %w", err)
	}
	defer rows.Close()

	var claims []ClaimRecord
	for rows.Next() {
		var r ClaimRecord
		if err := rows.Scan(&r.ClaimID, &r.PolicyNumber, &r.ClaimDate, &r.ClaimType,
			&r.Status, &r.AmountClaimed, &r.Description, &r.PolicyType); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(claims) == 0 {
		return nil, ErrNotFound
	}
	return claims, nil
}
