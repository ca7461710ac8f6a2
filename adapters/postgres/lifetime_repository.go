package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"gorelia/domain/core"
	"gorelia/domain/lifetime"
	"gorelia/internal/errors"
	"gorelia/ports"

	"github.com/jmoiron/sqlx"
)

// queryer is the read surface of *sqlx.DB the repository uses
type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var _ queryer = (*sqlx.DB)(nil)

// lifetimeRepository implements ports.LifetimeRecordPort over the maintenance schema
type lifetimeRepository struct {
	db queryer
}

// NewLifetimeRepository creates a new read-only lifetime repository
func NewLifetimeRepository(db *sqlx.DB) ports.LifetimeRecordPort {
	return &lifetimeRepository{db: db}
}

// lifetimeRow mirrors one ObjectLifetime joined with its object code
type lifetimeRow struct {
	ObjectCode    string       `db:"object_code"`
	StartDate     sql.NullTime `db:"start_date"`
	EndDate       sql.NullTime `db:"end_date"`
	IntervalStart sql.NullTime `db:"interval_start"`
	IntervalEnd   sql.NullTime `db:"interval_end"`
	Observable    sql.NullBool `db:"observable"`
}

const failureTypeQuery = `SELECT "ID" FROM "FailureTypeCode" WHERE lower("Code") = lower($1)`

// Lifetimes of every object with at least one malfunction of the failure type.
// An object is observable when any of its malfunctions of that type was.
const objectLifetimesQuery = `SELECT
		oc."Code" AS object_code,
		ol."StartDate" AS start_date,
		ol."EndDate" AS end_date,
		ol."IntervalStart" AS interval_start,
		ol."IntervalEnd" AS interval_end,
		bool_or(mr."Observable") AS observable
	FROM "ObjectLifetime" ol
	JOIN "ObjectCode" oc ON oc."ID" = ol."ObjectCodeID"
	JOIN "MalfunctionRecord" mr ON mr."ObjectCodeID" = ol."ObjectCodeID" AND mr."FailureTypeCodeID" = $1
	GROUP BY ol."ID", oc."Code", ol."StartDate", ol."EndDate", ol."IntervalStart", ol."IntervalEnd"
	ORDER BY ol."StartDate", oc."Code"`

const earliestStartQuery = `SELECT min("StartDate") FROM "ObjectLifetime"`

// EarliestStart returns the first start date across all object lifetimes
func (r *lifetimeRepository) EarliestStart(ctx context.Context) (time.Time, error) {
	var start sql.NullTime
	if err := r.db.GetContext(ctx, &start, earliestStartQuery); err != nil {
		return time.Time{}, errors.DatabaseError("failed to read earliest start date", err)
	}
	if !start.Valid {
		return time.Time{}, nil
	}
	return start.Time, nil
}

// ListObjectLifetimes returns the lifetime records for a failure type code,
// matched case-insensitively. An unknown code is a NOT_FOUND error.
func (r *lifetimeRepository) ListObjectLifetimes(ctx context.Context, failureTypeCode string) ([]lifetime.ObjectLifetime, error) {
	code, err := core.ParseFailureTypeCode(failureTypeCode)
	if err != nil {
		return nil, errors.InvalidInput("failure type code is required")
	}

	var failureTypeID string
	if err := r.db.GetContext(ctx, &failureTypeID, failureTypeQuery, code.String()); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound(fmt.Sprintf("failure type %q", code))
		}
		return nil, errors.DatabaseError("failed to look up failure type", err)
	}

	var rows []lifetimeRow
	if err := r.db.SelectContext(ctx, &rows, objectLifetimesQuery, failureTypeID); err != nil {
		return nil, errors.DatabaseError("failed to list object lifetimes", err)
	}

	records := make([]lifetime.ObjectLifetime, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (row lifetimeRow) toRecord() (lifetime.ObjectLifetime, error) {
	if !row.StartDate.Valid {
		return lifetime.ObjectLifetime{}, errors.DatabaseError(fmt.Sprintf("object %s has no start date", row.ObjectCode), nil)
	}
	return lifetime.ObjectLifetime{
		ObjectCode:    row.ObjectCode,
		StartDate:     row.StartDate.Time,
		EndDate:       nullTime(row.EndDate),
		IntervalStart: nullTime(row.IntervalStart),
		IntervalEnd:   nullTime(row.IntervalEnd),
		Observable:    row.Observable.Valid && row.Observable.Bool,
	}, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
