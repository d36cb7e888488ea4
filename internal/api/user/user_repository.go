package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/harunekki-api/app/db"
	"github.com/FACorreiaa/harunekki-api/app/observability/metrics"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user data persistence.
type UserRepo interface {
	// EnsureUser inserts the row for an authenticated id the first time it is seen.
	EnsureUser(ctx context.Context, userID uuid.UUID) error
	// GetUserByID returns types.ErrNotFound if the user doesn't exist.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileRequest) (*types.Profile, error)
	// DeleteUser removes the user; diaries and likes go with it through ON DELETE CASCADE.
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewPostgresUserRepo(pgpool database.Pool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func userSpan(ctx context.Context, name, op string, userID uuid.UUID) (context.Context, trace.Span) {
	return otel.Tracer("UserRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", op),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
}

func (r *PostgresUserRepo) fail(ctx context.Context, span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
	return fmt.Errorf("%s: %w", msg, err)
}

func (r *PostgresUserRepo) EnsureUser(ctx context.Context, userID uuid.UUID) error {
	ctx, span := userSpan(ctx, "EnsureUser", "INSERT", userID)
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, userID)
	if err != nil {
		return r.fail(ctx, span, "failed to ensure user", err)
	}
	if tag.RowsAffected() == 1 {
		r.logger.InfoContext(ctx, "First sign-in, user row created", slog.String("userID", userID.String()))
	}
	span.SetStatus(codes.Ok, "Ensured")
	return nil
}

const profileColumns = `id, name, age, gender, created_at, updated_at`

func scanProfile(row pgx.Row) (*types.Profile, error) {
	var p types.Profile
	if err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	ctx, span := userSpan(ctx, "GetUserByID", "SELECT", userID)
	defer span.End()

	p, err := scanProfile(r.pgpool.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
		}
		return nil, r.fail(ctx, span, "failed to read user", err)
	}
	span.SetStatus(codes.Ok, "Fetched")
	return p, nil
}

func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileRequest) (*types.Profile, error) {
	ctx, span := userSpan(ctx, "UpdateProfile", "UPSERT", userID)
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdateProfile"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Updating user profile")

	p, err := scanProfile(r.pgpool.QueryRow(ctx, `
		INSERT INTO users (id, name, age, gender) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, age = EXCLUDED.age, gender = EXCLUDED.gender, updated_at = now()
		RETURNING `+profileColumns,
		userID, params.Name, params.Age, string(params.Gender)))
	if err != nil {
		l.ErrorContext(ctx, "Failed to update profile", slog.Any("error", err))
		return nil, r.fail(ctx, span, "failed to update profile", err)
	}
	span.SetStatus(codes.Ok, "Updated")
	return p, nil
}

func (r *PostgresUserRepo) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	ctx, span := userSpan(ctx, "DeleteUser", "DELETE", userID)
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return r.fail(ctx, span, "failed to delete user", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "User not found")
		return fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Deleted")
	return nil
}
