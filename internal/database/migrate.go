package database

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Migrations are applied in order and tracked in schema_migrations.
// Keep each entry a single DDL batch that postgres can run in one Exec.
var migrations = []struct {
	version int
	sql     string
}{
	{1, `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{2, `
	CREATE TABLE IF NOT EXISTS auth_tokens (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(64) NOT NULL,
		token_type VARCHAR(16) NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		revoked_at TIMESTAMPTZ,
		last_used_at TIMESTAMPTZ,
		user_agent TEXT,
		ip_address TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{3, `
	CREATE TABLE IF NOT EXISTS tasks (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		description VARCHAR(1000) NOT NULL DEFAULT '',
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{4, `
	CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted BOOLEAN NOT NULL DEFAULT FALSE
	)`},
	{5, `
	CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		sequence_number INTEGER NOT NULL,
		role VARCHAR(16) NOT NULL,
		content TEXT NOT NULL,
		tool_calls JSONB,
		tool_call_id VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (conversation_id, sequence_number)
	)`},
	{6, `CREATE INDEX IF NOT EXISTS idx_tasks_user_created ON tasks (user_id, created_at DESC)`},
	{7, `CREATE INDEX IF NOT EXISTS idx_conversations_user_updated ON conversations (user_id, updated_at DESC)`},
	{8, `CREATE INDEX IF NOT EXISTS idx_messages_conversation_seq ON messages (conversation_id, sequence_number)`},
	{9, `CREATE INDEX IF NOT EXISTS idx_auth_tokens_user ON auth_tokens (user_id, token_hash)`},
}

// Migrate applies pending schema migrations
func Migrate(db *sql.DB) error {
	createMigrationsTable := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

	if _, err := db.Exec(createMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read migration versions: %w", err)
	}

	for _, migration := range migrations {
		if applied[migration.version] {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.Exec(migration.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", migration.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.version, err)
		}

		log.Info().Int("version", migration.version).Msg("Applied migration")
	}

	return nil
}
