// Package postgresengine implements the circulation storage contracts on
// PostgreSQL. All SQL is built with goqu; database access goes through a
// small adapter so the same stores run on a pgx pool, a database/sql DB or
// a sqlx DB.
//
// Concurrency-sensitive writes never read-then-write: the availability flag
// transitions with a conditional UPDATE and the ledgers append with a
// conditional INSERT, both validated by the affected row count. A lost race
// surfaces as zero rows affected and is mapped to the proper circulation
// conflict error.
package postgresengine
