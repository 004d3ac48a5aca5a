package repository

import "context"

// AssociationRepository define el lado directo de la asociación SSO:
// externalId → uid. El lado inverso vive en el registro del usuario
// (User.ExternalID) para lookup O(1) en el unlink.
//
// No hay transaccionalidad entre ambos lados; el service layer serializa
// la reconciliación por externalId para evitar escrituras duplicadas.
type AssociationRepository interface {
	// GetUID retorna el uid asociado a un externalId.
	// Retorna ErrNotFound si no hay asociación.
	GetUID(ctx context.Context, externalID string) (string, error)

	// Set escribe la asociación externalId → uid.
	Set(ctx context.Context, externalID, uid string) error

	// Delete elimina la asociación de un externalId.
	Delete(ctx context.Context, externalID string) error
}
