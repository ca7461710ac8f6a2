package migration

import (
	"context"

	"gorelia/internal/errors"

	"github.com/jmoiron/sqlx"
)

// MigrationRunner creates the maintenance schema lifetime records are read from
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Statements returns the schema statements in dependency order
func (r *MigrationRunner) Statements() []Statement {
	return []Statement{
		{Name: "FailureTypeCode", SQL: createFailureTypeCode},
		{Name: "MaintenanceGroup", SQL: createMaintenanceGroup},
		{Name: "ObjectCode", SQL: createObjectCode},
		{Name: "MalfunctionRecord", SQL: createMalfunctionRecord},
		{Name: "ObjectLifetime", SQL: createObjectLifetime},
		{Name: "indexes", SQL: createIndexes},
	}
}

// Run executes all migrations in order. Every statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range r.Statements() {
		if _, err := db.ExecContext(ctx, stmt.SQL); err != nil {
			return errors.DatabaseError("failed to create "+stmt.Name, err)
		}
	}
	return nil
}

// Statement is one named DDL step
type Statement struct {
	Name string
	SQL  string
}

const createFailureTypeCode = `
	CREATE TABLE IF NOT EXISTS "FailureTypeCode" (
		"ID" VARCHAR(36) PRIMARY KEY DEFAULT gen_random_uuid()::text,
		"Code" VARCHAR NOT NULL UNIQUE,
		"Description" VARCHAR
	)`

const createMaintenanceGroup = `
	CREATE TABLE IF NOT EXISTS "MaintenanceGroup" (
		"ID" VARCHAR(36) PRIMARY KEY DEFAULT gen_random_uuid()::text,
		"Code" VARCHAR NOT NULL UNIQUE,
		"Description" VARCHAR
	)`

const createObjectCode = `
	CREATE TABLE IF NOT EXISTS "ObjectCode" (
		"ID" VARCHAR(36) PRIMARY KEY DEFAULT gen_random_uuid()::text,
		"Code" VARCHAR NOT NULL UNIQUE,
		"Description" VARCHAR
	)`

const createMalfunctionRecord = `
	CREATE TABLE IF NOT EXISTS "MalfunctionRecord" (
		"ID" VARCHAR(36) PRIMARY KEY DEFAULT gen_random_uuid()::text,
		"MaintenanceGroupID" VARCHAR(36) REFERENCES "MaintenanceGroup"("ID"),
		"MalfunctionNumber" INTEGER NOT NULL,
		"ObjectCodeID" VARCHAR(36) REFERENCES "ObjectCode"("ID"),
		"Description" VARCHAR,
		"EventDate" DATE NOT NULL,
		"LastTestDate" DATE,
		"EventTime" TIME,
		"Observable" BOOLEAN NOT NULL,
		"FailureTypeCodeID" VARCHAR(36) REFERENCES "FailureTypeCode"("ID")
	)`

const createObjectLifetime = `
	CREATE TABLE IF NOT EXISTS "ObjectLifetime" (
		"ID" VARCHAR(36) PRIMARY KEY DEFAULT gen_random_uuid()::text,
		"ObjectCodeID" VARCHAR(36) REFERENCES "ObjectCode"("ID"),
		"StartDate" DATE NOT NULL,
		"EndDate" DATE,
		"IntervalStart" DATE,
		"IntervalEnd" DATE
	)`

const createIndexes = `
	CREATE INDEX IF NOT EXISTS idx_malfunction_failure_type ON "MalfunctionRecord"("FailureTypeCodeID");
	CREATE INDEX IF NOT EXISTS idx_malfunction_object ON "MalfunctionRecord"("ObjectCodeID");
	CREATE INDEX IF NOT EXISTS idx_lifetime_object ON "ObjectLifetime"("ObjectCodeID")`
