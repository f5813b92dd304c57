package store

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
)

// No unique constraint on (entity_id, related_data_id, type_of_record):
// duplicate links are rejected by an application-level check at create time,
// which leaves a narrow race between concurrent creates. Documented, accepted.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS entities (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name              TEXT NOT NULL,
    type              TEXT,
    description       TEXT,
    short_description TEXT,
    created_at        TIMESTAMPTZ DEFAULT NOW(),
    updated_at        TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS contacts (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name              TEXT NOT NULL,
    title             TEXT,
    description       TEXT,
    short_description TEXT,
    entity_id         UUID,
    created_at        TIMESTAMPTZ DEFAULT NOW(),
    updated_at        TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS emails (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email             TEXT NOT NULL,
    label             TEXT,
    description       TEXT,
    short_description TEXT,
    entity_id         UUID,
    created_at        TIMESTAMPTZ DEFAULT NOW(),
    updated_at        TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS phones (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    phone             TEXT NOT NULL,
    label             TEXT,
    description       TEXT,
    short_description TEXT,
    entity_id         UUID,
    created_at        TIMESTAMPTZ DEFAULT NOW(),
    updated_at        TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS websites (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    url               TEXT NOT NULL,
    name              TEXT,
    description       TEXT,
    short_description TEXT,
    entity_id         UUID,
    created_at        TIMESTAMPTZ DEFAULT NOW(),
    updated_at        TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS bank_accounts (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    account_name      TEXT NOT NULL,
    bank_name         TEXT,
    account_number    TEXT,
    routing_number    TEXT,
    description       TEXT,
    short_description TEXT,
    entity_id         UUID,
    created_at        TIMESTAMPTZ DEFAULT NOW(),
    updated_at        TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS crypto_accounts (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    account_name      TEXT NOT NULL,
    platform          TEXT,
    wallet_address    TEXT,
    description       TEXT,
    short_description TEXT,
    entity_id         UUID,
    created_at        TIMESTAMPTZ DEFAULT NOW(),
    updated_at        TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS investment_accounts (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    account_name      TEXT NOT NULL,
    provider          TEXT,
    account_number    TEXT,
    description       TEXT,
    short_description TEXT,
    entity_id         UUID,
    created_at        TIMESTAMPTZ DEFAULT NOW(),
    updated_at        TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS credit_cards (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    card_name         TEXT NOT NULL,
    cardholder_name   TEXT,
    issuer            TEXT,
    last_four         TEXT,
    description       TEXT,
    short_description TEXT,
    entity_id         UUID,
    created_at        TIMESTAMPTZ DEFAULT NOW(),
    updated_at        TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS hosting_accounts (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    provider          TEXT NOT NULL,
    account_name      TEXT,
    url               TEXT,
    username          TEXT,
    description       TEXT,
    short_description TEXT,
    entity_id         UUID,
    created_at        TIMESTAMPTZ DEFAULT NOW(),
    updated_at        TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS entity_related_data (
    id                       UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    entity_id                UUID NOT NULL,
    related_data_id          UUID NOT NULL,
    type_of_record           TEXT NOT NULL,
    relationship_description TEXT,
    created_at               TIMESTAMPTZ DEFAULT NOW(),
    updated_at               TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_entity_related_data_entity ON entity_related_data(entity_id);
CREATE INDEX IF NOT EXISTS idx_entity_related_data_record ON entity_related_data(related_data_id, type_of_record);

CREATE TABLE IF NOT EXISTS entity_relationships (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    from_entity_id    UUID NOT NULL,
    to_entity_id      UUID NOT NULL,
    relationship_type TEXT,
    description       TEXT,
    created_at        TIMESTAMPTZ DEFAULT NOW(),
    updated_at        TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_entity_relationships_from ON entity_relationships(from_entity_id);
CREATE INDEX IF NOT EXISTS idx_entity_relationships_to ON entity_relationships(to_entity_id);

CREATE TABLE IF NOT EXISTS _app_logs (
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    level      TEXT NOT NULL,
    source     TEXT NOT NULL,
    action     TEXT NOT NULL,
    message    TEXT NOT NULL,
    details    JSONB,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_app_logs_created ON _app_logs(created_at);

CREATE TABLE IF NOT EXISTS _users (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    roles         TEXT[] DEFAULT '{}',
    active        BOOLEAN DEFAULT true,
    created_at    TIMESTAMPTZ DEFAULT NOW(),
    updated_at    TIMESTAMPTZ DEFAULT NOW()
);
`

func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	if err := s.seedAdminUser(ctx); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

// CreateUser inserts a user with a bcrypt-hashed password. Used by the
// bootstrap seed and the createadmin command.
func (s *Store) CreateUser(ctx context.Context, email, password string, roles []string) error {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.Pool.Exec(ctx,
		`INSERT INTO _users (email, password_hash, roles) VALUES ($1, $2, $3)`,
		email, string(hashBytes), roles,
	)
	if err != nil {
		return MapError(err)
	}
	return nil
}

func (s *Store) seedAdminUser(ctx context.Context) error {
	var count int
	if err := s.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM _users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if err := s.CreateUser(ctx, "admin@localhost", "changeme", []string{"admin"}); err != nil {
		return err
	}

	log.Println("WARNING: Default admin user created (admin@localhost / changeme), change the password immediately.")
	return nil
}
