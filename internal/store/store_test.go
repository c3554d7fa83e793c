package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/supportdesk/internal/domain"
	"github.com/soyeahso/supportdesk/internal/logging"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seededDB(t *testing.T) *DB {
	t.Helper()
	db := testDB(t)
	require.NoError(t, db.Seed(context.Background()))
	return db
}

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.NotNil(t, db.SQL())
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	err := db.migrate()
	require.NoError(t, err)

	var count int
	err = db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestSchema_TablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{"customers", "policies", "auto_policy_details", "billing", "payments", "claims", "faqs", "faq_fts", "sessions"}
	for _, table := range tables {
		var name string
		err := db.sql.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	db := seededDB(t)
	require.NoError(t, db.Seed(context.Background()))

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM customers").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

// --- Lookup tests ---

func TestGetPolicyDetails_Found(t *testing.T) {
	db := seededDB(t)

	rec, err := db.GetPolicyDetails(context.Background(), "POL000004")
	require.NoError(t, err)
	assert.Equal(t, "auto", rec.PolicyType)
	assert.Equal(t, "Maria", rec.FirstName)
	assert.Equal(t, "Santos", rec.LastName)
	assert.InDelta(t, 112.25, rec.PremiumAmount, 0.001)
}

func TestGetPolicyDetails_NotFound(t *testing.T) {
	db := seededDB(t)

	_, err := db.GetPolicyDetails(context.Background(), "POL999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAutoPolicyDetails(t *testing.T) {
	db := seededDB(t)

	rec, err := db.GetAutoPolicyDetails(context.Background(), "POL000004")
	require.NoError(t, err)
	assert.Equal(t, "Honda", rec.VehicleMake)
	assert.Equal(t, 2023, rec.VehicleYear)
	assert.InDelta(t, 750, rec.CollisionDeductible, 0.001)

	// Home policy has no auto details
	_, err = db.GetAutoPolicyDetails(context.Background(), "POL000001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBillingInfo_ByPolicy(t *testing.T) {
	db := seededDB(t)

	rec, err := db.GetBillingInfo(context.Background(), "POL000004", "")
	require.NoError(t, err)
	assert.Equal(t, "BILL0003", rec.BillID)
	assert.Equal(t, "pending", rec.Status)
}

func TestGetBillingInfo_ByCustomer(t *testing.T) {
	db := seededDB(t)

	rec, err := db.GetBillingInfo(context.Background(), "", "CUST00002")
	require.NoError(t, err)
	assert.Equal(t, "POL000002", rec.PolicyNumber)
}

func TestGetBillingInfo_NoIdentifier(t *testing.T) {
	db := seededDB(t)

	_, err := db.GetBillingInfo(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPaymentHistory(t *testing.T) {
	db := seededDB(t)

	payments, err := db.GetPaymentHistory(context.Background(), "POL000004")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "credit_card", payments[0].PaymentMethod)
}

func TestGetPaymentHistory_EmptyNotError(t *testing.T) {
	db := seededDB(t)

	payments, err := db.GetPaymentHistory(context.Background(), "POL000003")
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestGetClaimStatus_ByClaimID(t *testing.T) {
	db := seededDB(t)

	claims, err := db.GetClaimStatus(context.Background(), "CLM000003", "")
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "glass", claims[0].ClaimType)
	assert.Equal(t, "auto", claims[0].PolicyType)
}

func TestGetClaimStatus_ByPolicy(t *testing.T) {
	db := seededDB(t)

	claims, err := db.GetClaimStatus(context.Background(), "", "POL000002")
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "CLM000001", claims[0].ClaimID)
}

func TestGetClaimStatus_NotFound(t *testing.T) {
	db := seededDB(t)

	_, err := db.GetClaimStatus(context.Background(), "CLM999999", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- FAQ tests ---

func TestSearchFAQs_Ranked(t *testing.T) {
	db := seededDB(t)

	matches, err := db.SearchFAQs(context.Background(), "how do I file a claim", 3)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.LessOrEqual(t, len(matches), 3)
	assert.Equal(t, 1, matches[0].Rank)
	assert.Contains(t, matches[0].Question, "claim")
}

func TestSearchFAQs_SpecialCharacters(t *testing.T) {
	db := seededDB(t)

	// FTS5 syntax characters in user text must not break the query
	matches, err := db.SearchFAQs(context.Background(), `premium "due*" (when?)`, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, matches)
}

func TestSearchFAQs_EmptyQuery(t *testing.T) {
	db := seededDB(t)

	matches, err := db.SearchFAQs(context.Background(), "!!! ???", 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

// --- Session store tests ---

func newTestSession() *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		LastActivity: now,
	}
}

func TestSessionStore_PutGet(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db, time.Hour)

	sess := newTestSession()
	sess.AddMessage("user", "hello", "")
	require.NoError(t, ss.Put(sess))

	got, err := ss.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestSessionStore_GetMissing(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db, time.Hour)

	_, err := ss.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_GetReportsDBErrors(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db, time.Hour)

	sess := newTestSession()
	require.NoError(t, ss.Put(sess))
	require.NoError(t, db.Close())

	// A failing query is a real error, not a missing session.
	_, err := ss.Get(sess.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_Expiry(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db, -time.Second) // already expired on Put

	sess := newTestSession()
	require.NoError(t, ss.Put(sess))

	_, err := ss.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_PendingStateSurvivesRoundTrip(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db, time.Hour)

	sess := newTestSession()
	state := domain.NewConversationState("what is my deductible?", "")
	state.NeedsClarification = true
	state.ClarificationQuestion = "Which policy do you mean?"
	sess.Pending = state
	require.NoError(t, ss.Put(sess))

	got, err := ss.Get(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Pending)
	assert.True(t, got.Pending.NeedsClarification)
	assert.Equal(t, "Which policy do you mean?", got.Pending.ClarificationQuestion)
}

func TestSessionStore_Delete(t *testing.T) {
	db := testDB(t)
	ss := NewSQLiteSessionStore(db, time.Hour)

	sess := newTestSession()
	require.NoError(t, ss.Put(sess))
	require.NoError(t, ss.Delete(sess.ID))

	_, err := ss.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, ss.Delete(sess.ID), ErrNotFound)
}

func TestSessionStore_PurgeExpired(t *testing.T) {
	db := testDB(t)

	expired := NewSQLiteSessionStore(db, -time.Second)
	require.NoError(t, expired.Put(newTestSession()))
	require.NoError(t, expired.Put(newTestSession()))

	live := NewSQLiteSessionStore(db, time.Hour)
	keep := newTestSession()
	require.NoError(t, live.Put(keep))

	n, err := live.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := live.List()
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, ids)
}
