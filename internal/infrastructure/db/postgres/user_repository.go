// Package postgres implements the user store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tourismsite/tourism/internal/core/domain"
)

// uniqueViolation is the SQLSTATE raised by the users_email_key constraint.
const uniqueViolation = "23505"

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// withConn runs fn on a connection reserved for this call and returns it to
// the driver afterwards, whatever fn returns.
func (r *UserRepository) withConn(ctx context.Context, op string, fn func(conn *sql.Conn) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return domain.NewStoreError(op, err)
	}
	defer conn.Close()

	return fn(conn)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query :=
		`SELECT id, username, email, password, created_at FROM users
		 WHERE email = $1
		 `

	return r.findOne(ctx, "find user by email", query, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query :=
		`SELECT id, username, email, password, created_at FROM users
		 WHERE id = $1
		 `

	return r.findOne(ctx, "find user by id", query, id)
}

func (r *UserRepository) findOne(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	user := &domain.User{}
	err := r.withConn(ctx, op, func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, query, arg).
			Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrUserNotFound
			}
			return domain.NewStoreError(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) Insert(ctx context.Context, username, email, password string) (int64, error) {
	query :=
		`INSERT INTO users (username, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	var id int64
	err := r.withConn(ctx, "insert user", func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, query, username, email, password).Scan(&id)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return domain.ErrEmailExists
			}
			return domain.NewStoreError("insert user", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *UserRepository) Name() string { return "postgres" }

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
