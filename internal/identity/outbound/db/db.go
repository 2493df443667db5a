// Package db reads and updates WorkPulse accounts in PostgreSQL.
package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/workpulse/workpulse/internal/pkg/goerror"
	"github.com/workpulse/workpulse/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const pgUniqueViolation = "23505"

type DB struct {
	conn   *pgxpool.Pool
	tracer trace.Tracer
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, tracer: ins.Tracer("identity.outbound.db")}
}

// mapError turns driver errors into the goerror sentinels usecases match on.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return goerror.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return goerror.ErrConflict
	}
	return err
}

// span starts a client span for one query. The returned func ends it;
// not found and conflict are expected outcomes and do not mark it failed.
func (s *DB) span(ctx context.Context, op, table string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			attribute.String("db.operation.name", op),
			attribute.String("db.collection.name", table),
		),
	)

	return ctx, func(err error) {
		if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
