package middlewares

import "context"

type ctxKey string

const (
	// ctxUIDKey guarda el uid local de la sesión validada
	ctxUIDKey ctxKey = "uid"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithUID inyecta el uid en el contexto
func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxUIDKey, uid)
}

// setRequestID inyecta el request ID en el contexto (interno)
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetUID obtiene el uid del contexto.
// Retorna cadena vacía si no hay sesión validada.
func GetUID(ctx context.Context) string {
	if v := ctx.Value(ctxUIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
