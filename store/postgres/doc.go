// Package postgres implements the store using pgx/v5 with raw SQL.
// Features: conditional-UPDATE eligibility predicate for records,
// upsert-based job journal, DLQ table, embedded SQL migrations.
package postgres
