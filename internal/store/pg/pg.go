// Package pg implements the identity store on PostgreSQL via pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/socialgate/internal/store"
)

const uniqueViolation = "23505"

// Store es la implementación PostgreSQL de store.IdentityStore.
type Store struct{ pool *pgxpool.Pool }

// Config tuning opcional del pool.
type Config struct {
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
}

// New abre un pool contra el DSN dado y verifica la conexión.
func New(ctx context.Context, dsn string, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Pool expone el pool interno (migraciones/metrics).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) FindAccount(ctx context.Context, provider, identifier string) (*store.Account, error) {
	var a store.Account
	err := s.pool.QueryRow(ctx,
		`SELECT provider, identifier, user_uuid, created_at
		   FROM accounts
		  WHERE provider = $1 AND identifier = $2`,
		provider, identifier,
	).Scan(&a.Provider, &a.Identifier, &a.UserUUID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) FindUser(ctx context.Context, id uuid.UUID) (*store.User, error) {
	var u store.User
	err := s.pool.QueryRow(ctx,
		`SELECT uuid, created_at FROM users WHERE uuid = $1`, id,
	).Scan(&u.UUID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) AccountsByUser(ctx context.Context, id uuid.UUID) ([]store.Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT provider, identifier, user_uuid, created_at
		   FROM accounts
		  WHERE user_uuid = $1
		  ORDER BY created_at`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Account
	for rows.Next() {
		var a store.Account
		if err := rows.Scan(&a.Provider, &a.Identifier, &a.UserUUID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context) (*store.User, error) {
	var u store.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (uuid) VALUES ($1) RETURNING uuid, created_at`,
		uuid.New(),
	).Scan(&u.UUID, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateAccount(ctx context.Context, provider, identifier string, userID uuid.UUID) (*store.Account, error) {
	var a store.Account
	err := s.pool.QueryRow(ctx,
		`INSERT INTO accounts (provider, identifier, user_uuid)
		 VALUES ($1, $2, $3)
		 RETURNING provider, identifier, user_uuid, created_at`,
		provider, identifier, userID,
	).Scan(&a.Provider, &a.Identifier, &a.UserUUID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, store.ErrDuplicateAccount
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) DeleteAccount(ctx context.Context, provider, identifier string, userID uuid.UUID) (bool, error) {
	// Scoped por el triple completo: nunca borra cuentas de otro usuario.
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM accounts
		  WHERE provider = $1 AND identifier = $2 AND user_uuid = $3`,
		provider, identifier, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE uuid = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() { s.pool.Close() }
