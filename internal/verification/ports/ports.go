// Package ports declares the collaborators the verification orchestrator calls out to.
package ports

import (
	"context"

	accountModels "hostguard/internal/accounts/models"
	directoryModels "hostguard/internal/directory/models"
	incidentModels "hostguard/internal/incident/models"
	quotaModels "hostguard/internal/quota/models"
	"hostguard/internal/verification/authority"
	id "hostguard/pkg/domain"
)

// Authority verifies an identifier against the external tax authority.
// Implementations fold every failure into the Outcome.
type Authority interface {
	Verify(ctx context.Context, identifier string) authority.Outcome
}

// Accounts resolves the requesting user. A nil user means unregistered.
type Accounts interface {
	Resolve(ctx context.Context, userID id.UserID, phone string) (*accountModels.User, error)
}

// Quota gates verifications on the trial/subscription state.
type Quota interface {
	CheckAndReserve(ctx context.Context, userID id.UserID) (quotaModels.Decision, error)
	Consume(ctx context.Context, userID id.UserID) (*quotaModels.TrialState, error)
}

// Directory resolves verified identifiers to canonical clients.
type Directory interface {
	FindByIdentifier(ctx context.Context, idNumber string) (*directoryModels.Client, error)
	Aliases(ctx context.Context, clientID id.ClientID) ([]*directoryModels.NameAlias, error)
}

// Incidents lists the most recent incidents recorded against a client.
type Incidents interface {
	RecentByClient(ctx context.Context, clientID id.ClientID) ([]*incidentModels.Incident, error)
}
