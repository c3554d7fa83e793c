package store

import (
	"context"
	"fmt"
)

// Seed loads demo customers, policies, billing, claims, and FAQs so the
// system can answer questions out of the box. Seeding is idempotent: an
// already-seeded database is left alone.
func (db *DB) Seed(ctx context.Context) error {
	var count int
	if err := db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&count); err != nil {
		return fmt.Errorf("checking seed state: %w", err)
	}
	if count > 0 {
		db.log.Debug().Msg("database already seeded")
		return nil
	}

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range seedStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	db.log.Info().Msg("database seeded with demo data")
	return nil
}

var seedStatements = []string{
	`INSERT INTO customers (customer_id, first_name, last_name, email, phone) VALUES
		('CUST00001', 'Maria', 'Santos', 'maria.santos@example.com', '555-0101'),
		('CUST00002', 'James', 'Okafor', 'james.okafor@example.com', '555-0102'),
		('CUST00003', 'Linh', 'Tran', 'linh.tran@example.com', '555-0103'),
		('CUST00004', 'Robert', 'Keller', 'robert.keller@example.com', '555-0104')`,

	`INSERT INTO policies (policy_number, customer_id, policy_type, status, premium_amount, billing_frequency, start_date, end_date) VALUES
		('POL000001', 'CUST00001', 'home', 'active', 145.50, 'monthly', '2025-01-15', '2026-01-15'),
		('POL000002', 'CUST00002', 'auto', 'active', 98.75, 'monthly', '2025-03-01', '2026-03-01'),
		('POL000003', 'CUST00003', 'life', 'active', 62.00, 'monthly', '2024-11-20', '2025-11-20'),
		('POL000004', 'CUST00001', 'auto', 'active', 112.25, 'monthly', '2025-05-10', '2026-05-10'),
		('POL000005', 'CUST00004', 'home', 'lapsed', 130.00, 'quarterly', '2024-06-01', '2025-06-01')`,

	`INSERT INTO auto_policy_details (policy_number, vehicle_make, vehicle_model, vehicle_year, vin, collision_deductible, comprehensive_deductible) VALUES
		('POL000002', 'Toyota', 'Corolla', 2021, '1NXBR32E84Z995465', 500, 250),
		('POL000004', 'Honda', 'CR-V', 2023, '2HKRW2H58NH229731', 750, 500)`,

	`INSERT INTO billing (bill_id, policy_number, amount_due, due_date, status) VALUES
		('BILL0001', 'POL000001', 145.50, '2026-09-15', 'pending'),
		('BILL0002', 'POL000002', 98.75, '2026-09-01', 'pending'),
		('BILL0003', 'POL000004', 112.25, '2026-09-10', 'pending'),
		('BILL0004', 'POL000004', 112.25, '2026-08-10', 'paid'),
		('BILL0005', 'POL000001', 145.50, '2026-08-15', 'paid')`,

	`INSERT INTO payments (payment_id, bill_id, payment_date, amount, status, payment_method) VALUES
		('PAY00001', 'BILL0004', '2026-08-08', 112.25, 'completed', 'credit_card'),
		('PAY00002', 'BILL0005', '2026-08-12', 145.50, 'completed', 'bank_transfer')`,

	`INSERT INTO claims (claim_id, policy_number, claim_date, claim_type, status, amount_claimed, description) VALUES
		('CLM000001', 'POL000002', '2026-07-03', 'collision', 'under_review', 4200.00, 'Rear-end collision at intersection'),
		('CLM000002', 'POL000001', '2026-06-18', 'water_damage', 'approved', 8900.00, 'Burst pipe in upstairs bathroom'),
		('CLM000003', 'POL000004', '2026-08-22', 'glass', 'submitted', 350.00, 'Cracked windshield from road debris')`,

	`INSERT INTO faqs (question, answer, category) VALUES
		('How do I file a claim?', 'You can file a claim online through your account portal, by calling our claims line, or through a support agent. Have your policy number and incident details ready.', 'claims'),
		('When is my premium due?', 'Premiums are due on the date shown on your bill. Monthly policies bill on the same day each month; a grace period of 10 days applies before a policy lapses.', 'billing'),
		('How do I update my payment method?', 'Log into your account, open Billing Settings, and choose Update Payment Method. Changes apply from the next billing cycle.', 'billing'),
		('What does my auto policy deductible mean?', 'The deductible is the amount you pay out of pocket before coverage applies. Collision and comprehensive coverage carry separate deductibles.', 'policy'),
		('How do I cancel my policy?', 'Contact support or submit a cancellation request from your account. Refunds for unused premium are prorated from the cancellation date.', 'policy'),
		('How long does a claim take to process?', 'Most claims are reviewed within 5 business days. Complex claims involving injury or large losses can take longer; you will be notified of status changes.', 'claims')`,
}
