// Package cache provee un key/value durable con soporte multi-backend.
//
// Soporta:
//   - Memory (in-process, para desarrollo/testing)
//   - Redis (distribuido, para producción)
//
// El servicio guarda aquí la relación externalId→uid y los settings del
// provider, por lo que en producción el backend debe ser durable (Redis con
// persistencia). Memory pierde todo al reiniciar.
package cache

import (
	"context"
	"time"
)

// Client define las operaciones del key/value store.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL opcional.
	// Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete elimina una key.
	Delete(ctx context.Context, key string) error

	// Exists verifica si una key existe.
	Exists(ctx context.Context, key string) (bool, error)

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error
}

// Config configuración para crear un cliente.
type Config struct {
	Driver   string // "memory" | "redis"
	Addr     string // host:port (redis)
	Password string
	DB       int
	Prefix   string // Prefijo para todas las keys
}

// Errores de cache.
var (
	ErrNotFound = errNotFound{}
)

type errNotFound struct{}

func (e errNotFound) Error() string { return "cache: key not found" }

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	_, ok := err.(errNotFound)
	return ok
}

// New crea un cliente según la configuración.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg)
	case "memory", "":
		return NewMemory(cfg.Prefix), nil
	default:
		return NewMemory(cfg.Prefix), nil
	}
}
