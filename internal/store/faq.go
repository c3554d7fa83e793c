package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/supportdesk/internal/domain"
)

// AddFAQ inserts a FAQ entry. The FTS index is kept in sync by triggers.
func (db *DB) AddFAQ(ctx context.Context, question, answer, category string) error {
	_, err := db.sql.ExecContext(ctx,
		"INSERT INTO faqs (question, answer, category) VALUES (?, ?, ?)",
		question, answer, category,
	)
	if err != nil {
		return fmt.Errorf("inserting faq: %w", err)
	}
	return nil
}

// SearchFAQs runs a full-text query against the FAQ index and returns the
// top matches ranked best-first. A query matching nothing yields an empty
// slice.
func (db *DB) SearchFAQs(ctx context.Context, query string, limit int) ([]domain.FAQMatch, error) {
	if limit <= 0 {
		limit = 3
	}

	match := ftsQuery(query)
	if match == "" {
		return []domain.FAQMatch{}, nil
	}

	rows, err := db.sql.QueryContext(ctx,
		`SELECT f.question, f.answer
		 FROM faq_fts
		 JOIN faqs f ON f.id = faq_fts.rowid
		 WHERE faq_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching faqs: %w", err)
	}
	defer rows.Close()

	var matches []domain.FAQMatch
	for rows.Next() {
		var m domain.FAQMatch
		if err := rows.Scan(&m.Question, &m.Answer); err != nil {
			return nil, fmt.Errorf("scanning faq: %w", err)
		}
		m.Rank = len(matches) + 1
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ftsQuery turns free-form user text into a safe FTS5 OR-query. Tokens are
// stripped of anything FTS5 treats as syntax.
func ftsQuery(text string) string {
	fields := strings.Fields(text)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		clean := strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, f)
		if clean != "" {
			terms = append(terms, clean)
		}
	}
	return strings.Join(terms, " OR ")
}
