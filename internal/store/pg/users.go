package pg

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/ssobridge/internal/domain/repository"
)

const uniqueViolation = "23505"

// userRepo implementa repository.UserRepository sobre la tabla forum_user.
type userRepo struct {
	pool *pgxpool.Pool
}

// NewUsers crea el repositorio de usuarios.
func NewUsers(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) GetByID(ctx context.Context, uid string) (*repository.User, error) {
	const query = `
		SELECT id, username, email, email_verified, fullname, external_id, created_at
		FROM forum_user
		WHERE id = $1
	`
	var u repository.User
	var externalID *string
	err := r.pool.QueryRow(ctx, query, uid).Scan(
		&u.ID, &u.Username, &u.Email, &u.EmailVerified, &u.Fullname,
		&externalID, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if externalID != nil {
		u.ExternalID = *externalID
	}
	return &u, nil
}

func (r *userRepo) GetUIDByEmail(ctx context.Context, email string) (string, error) {
	// Si por datos legacy hubiera emails duplicados, gana la cuenta más vieja.
	const query = `
		SELECT id FROM forum_user
		WHERE lower(email) = lower($1)
		ORDER BY created_at
		LIMIT 1
	`
	var uid string
	err := r.pool.QueryRow(ctx, query, email).Scan(&uid)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return uid, nil
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (string, error) {
	if input.Username == "" || input.Email == "" {
		return "", repository.ErrInvalidInput
	}

	const query = `
		INSERT INTO forum_user (id, username, email, email_verified, fullname, created_at)
		VALUES ($1, $2, $3, FALSE, '', $4)
	`

	username := input.Username
	// El username viene de un nickname generado; ante colisión se reintenta
	// con un sufijo numérico en lugar de fallar el login.
	for attempt := 0; attempt < 3; attempt++ {
		uid := uuid.NewString()
		_, err := r.pool.Exec(ctx, query, uid, username, input.Email, time.Now().UTC())
		if err == nil {
			return uid, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			username = fmt.Sprintf("%s-%d", input.Username, rand.Intn(10000))
			continue
		}
		return "", err
	}
	return "", repository.ErrConflict
}

func (r *userRepo) SetEmail(ctx context.Context, uid, email string) error {
	return r.setColumn(ctx, uid, "email", email)
}

func (r *userRepo) SetFullname(ctx context.Context, uid, fullname string) error {
	return r.setColumn(ctx, uid, "fullname", fullname)
}

func (r *userRepo) SetExternalID(ctx context.Context, uid, externalID string) error {
	return r.setColumn(ctx, uid, "external_id", externalID)
}

func (r *userRepo) ClearExternalID(ctx context.Context, uid string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE forum_user SET external_id = NULL WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) ConfirmEmail(ctx context.Context, uid string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE forum_user SET email_verified = TRUE WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// setColumn actualiza una columna simple validando que el usuario exista.
// Las columnas son constantes internas, nunca input del cliente.
func (r *userRepo) setColumn(ctx context.Context, uid, column, value string) error {
	query := fmt.Sprintf(`UPDATE forum_user SET %s = $2 WHERE id = $1`, column)
	tag, err := r.pool.Exec(ctx, query, uid, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
