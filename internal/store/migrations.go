package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create insurance records",
		SQL: `
			CREATE TABLE customers (
				customer_id  TEXT PRIMARY KEY,
				first_name   TEXT NOT NULL,
				last_name    TEXT NOT NULL,
				email        TEXT NOT NULL DEFAULT '',
				phone        TEXT NOT NULL DEFAULT '',
				created_at   TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE TABLE policies (
				policy_number      TEXT PRIMARY KEY,
				customer_id        TEXT NOT NULL REFERENCES customers(customer_id),
				policy_type        TEXT NOT NULL,
				status             TEXT NOT NULL DEFAULT 'active',
				premium_amount     REAL NOT NULL,
				billing_frequency  TEXT NOT NULL DEFAULT 'monthly',
				start_date         TEXT NOT NULL,
				end_date           TEXT NOT NULL
			);

			CREATE INDEX idx_policies_customer ON policies (customer_id);

			CREATE TABLE auto_policy_details (
				policy_number          TEXT PRIMARY KEY REFERENCES policies(policy_number),
				vehicle_make           TEXT NOT NULL,
				vehicle_model          TEXT NOT NULL,
				vehicle_year           INTEGER NOT NULL,
				vin                    TEXT NOT NULL DEFAULT '',
				collision_deductible   REAL NOT NULL DEFAULT 0,
				comprehensive_deductible REAL NOT NULL DEFAULT 0
			);

			CREATE TABLE billing (
				bill_id        TEXT PRIMARY KEY,
				policy_number  TEXT NOT NULL REFERENCES policies(policy_number),
				amount_due     REAL NOT NULL,
				due_date       TEXT NOT NULL,
				status         TEXT NOT NULL DEFAULT 'pending'
			);

			CREATE INDEX idx_billing_policy ON billing (policy_number, status);

			CREATE TABLE payments (
				payment_id      TEXT PRIMARY KEY,
				bill_id         TEXT NOT NULL REFERENCES billing(bill_id),
				payment_date    TEXT NOT NULL,
				amount          REAL NOT NULL,
				status          TEXT NOT NULL DEFAULT 'completed',
				payment_method  TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_payments_bill ON payments (bill_id);

			CREATE TABLE claims (
				claim_id       TEXT PRIMARY KEY,
				policy_number  TEXT NOT NULL REFERENCES policies(policy_number),
				claim_date     TEXT NOT NULL,
				claim_type     TEXT NOT NULL,
				status         TEXT NOT NULL,
				amount_claimed REAL NOT NULL DEFAULT 0,
				description    TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_claims_policy ON claims (policy_number, claim_date);
		`,
	},
	{
		Version: 2,
		Name:    "create faqs with FTS5",
		SQL: `
			CREATE TABLE faqs (
				id        INTEGER PRIMARY KEY AUTOINCREMENT,
				question  TEXT NOT NULL,
				answer    TEXT NOT NULL,
				category  TEXT NOT NULL DEFAULT 'general'
			);

			CREATE VIRTUAL TABLE faq_fts USING fts5(
				question,
				answer,
				content='faqs',
				content_rowid='id'
			);

			CREATE TRIGGER faq_ai AFTER INSERT ON faqs BEGIN
				INSERT INTO faq_fts(rowid, question, answer)
				VALUES (new.id, new.question, new.answer);
			END;

			CREATE TRIGGER faq_ad AFTER DELETE ON faqs BEGIN
				INSERT INTO faq_fts(faq_fts, rowid, question, answer)
				VALUES ('delete', old.id, old.question, old.answer);
			END;

			CREATE TRIGGER faq_au AFTER UPDATE ON faqs BEGIN
				INSERT INTO faq_fts(faq_fts, rowid, question, answer)
				VALUES ('delete', old.id, old.question, old.answer);
				INSERT INTO faq_fts(rowid, question, answer)
				VALUES (new.id, new.question, new.answer);
			END;
		`,
	},
	{
		Version: 3,
		Name:    "create sessions",
		SQL: `
			CREATE TABLE sessions (
				id            TEXT PRIMARY KEY,
				created_at    TEXT NOT NULL,
				last_activity TEXT NOT NULL,
				expires_at    TEXT NOT NULL,
				data          TEXT NOT NULL
			);

			CREATE INDEX idx_sessions_expiry ON sessions (expires_at);
		`,
	},
}
