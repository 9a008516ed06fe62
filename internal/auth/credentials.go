package auth

import (
	"context"
	"time"

	"github.com/example/field-scheduler/internal/crypto"
	"github.com/example/field-scheduler/internal/db"
)

// UpstreamCredential is one user's authenticated upstream session: an
// access token (encrypted at rest) plus the tenant instance endpoint.
type UpstreamCredential struct {
	AccessToken    string
	TenantEndpoint string
	UpdatedAt      time.Time
}

// CredentialStore persists per-user upstream credentials. UpdatedAt moves
// on every save, so callers can key caches to it and drop state when the
// credential changes.
type CredentialStore struct {
	db   *db.DB
	aead *crypto.AEAD
}

func NewCredentialStore(d *db.DB, aead *crypto.AEAD) *CredentialStore {
	return &CredentialStore{db: d, aead: aead}
}

func (s *CredentialStore) Save(ctx context.Context, userID int64, accessToken, tenantEndpoint string) error {
	enc, err := s.aead.EncryptToString(accessToken)
	if err != nil {
		return err
	}
	return s.db.Exec(ctx, `
INSERT INTO upstream_credentials(user_id, access_token_enc, tenant_endpoint, updated_at)
VALUES ($1,$2,$3,now())
ON CONFLICT (user_id) DO UPDATE SET access_token_enc=$2, tenant_endpoint=$3, updated_at=now()`,
		userID, enc, tenantEndpoint)
}

func (s *CredentialStore) Get(ctx context.Context, userID int64) (UpstreamCredential, error) {
	var enc string
	var cred UpstreamCredential
	err := s.db.QueryRow(ctx,
		`SELECT access_token_enc, tenant_endpoint, updated_at FROM upstream_credentials WHERE user_id=$1`,
		userID).Scan(&enc, &cred.TenantEndpoint, &cred.UpdatedAt)
	if err != nil {
		return UpstreamCredential{}, db.WrapNotFound(err)
	}
	cred.AccessToken, err = s.aead.DecryptString(enc)
	if err != nil {
		return UpstreamCredential{}, err
	}
	return cred, nil
}

func (s *CredentialStore) Delete(ctx context.Context, userID int64) error {
	return s.db.Exec(ctx, `DELETE FROM upstream_credentials WHERE user_id=$1`, userID)
}
