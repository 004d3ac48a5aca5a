package repository

import (
	"context"
	"time"
)

// User representa una cuenta local del foro.
// ExternalID es el lado inverso de la asociación SSO: si está vacío, la
// cuenta no está vinculada a ninguna identidad externa.
type User struct {
	ID            string
	Username      string
	Email         string
	EmailVerified bool
	Fullname      string
	ExternalID    string
	CreatedAt     time.Time
}

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	Username string
	Email    string
}

// UserRepository define las operaciones sobre cuentas locales que necesita
// la reconciliación SSO. El resto del modelo de usuario pertenece al foro.
type UserRepository interface {
	// GetByID busca un usuario por ID.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, uid string) (*User, error)

	// GetUIDByEmail busca el uid de un usuario por email.
	// Retorna ErrNotFound si no existe.
	GetUIDByEmail(ctx context.Context, email string) (string, error)

	// Create crea un usuario nuevo y retorna su uid.
	Create(ctx context.Context, input CreateUserInput) (string, error)

	// SetEmail actualiza el email almacenado.
	SetEmail(ctx context.Context, uid, email string) error

	// SetFullname actualiza el nombre completo.
	SetFullname(ctx context.Context, uid, fullname string) error

	// SetExternalID escribe el lado inverso de la asociación (uid→externalId).
	SetExternalID(ctx context.Context, uid, externalID string) error

	// ClearExternalID borra el lado inverso de la asociación.
	ClearExternalID(ctx context.Context, uid string) error

	// ConfirmEmail marca el email como verificado.
	ConfirmEmail(ctx context.Context, uid string) error
}
