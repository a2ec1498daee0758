// File: internal/usecase/credentials.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
	"chitfund-backend/internal/domain/ports/repository"
	"chitfund-backend/internal/infra/metrics"
)

// credentialResolver picks the gateway key pair for an order. A merchant with
// a complete encrypted key pair collects directly; anything that fails to
// decrypt falls back to the platform keys.
type credentialResolver struct {
	platform  adapter.Credentials
	box       adapter.SecretBox
	merchants repository.MerchantRepository
	log       *zerolog.Logger
}

func newCredentialResolver(platform adapter.Credentials, box adapter.SecretBox, merchants repository.MerchantRepository, logger *zerolog.Logger) *credentialResolver {
	return &credentialResolver{platform: platform, box: box, merchants: merchants, log: logger}
}

// forMerchant returns the credentials an installment order for m is created with.
func (r *credentialResolver) forMerchant(m *model.Merchant) (adapter.Credentials, model.CredentialMode) {
	if m == nil || !m.HasOwnGatewayKeys() || r.box == nil {
		return r.platform, model.CredentialModePlatform
	}
	creds, err := r.decrypt(m)
	if err != nil {
		metrics.CredentialFallbackTotal.Inc()
		r.log.Warn().Err(err).Str("merchant_id", m.ID).Msg("merchant gateway keys unusable, using platform keys")
		return r.platform, model.CredentialModePlatform
	}
	return creds, model.CredentialModeMerchant
}

// secretFor returns the secret that signs checkout results for o. A merchant
// secret that no longer decrypts yields the platform secret, so verification
// fails closed.
func (r *credentialResolver) secretFor(ctx context.Context, o *model.GatewayOrder) string {
	if o.CredentialMode != model.CredentialModeMerchant {
		return r.platform.KeySecret
	}
	m, err := r.merchants.FindByID(ctx, repository.NoTX, o.MerchantID)
	if err != nil || m == nil || r.box == nil {
		r.log.Warn().Err(err).Str("order_id", o.ID).Msg("merchant for order unavailable, verifying with platform secret")
		return r.platform.KeySecret
	}
	creds, err := r.decrypt(m)
	if err != nil {
		metrics.CredentialFallbackTotal.Inc()
		r.log.Warn().Err(err).Str("merchant_id", m.ID).Msg("merchant secret unusable, verifying with platform secret")
		return r.platform.KeySecret
	}
	return creds.KeySecret
}

func (r *credentialResolver) decrypt(m *model.Merchant) (adapter.Credentials, error) {
	keyID, err := r.box.Decrypt(m.GatewayKeyIDEnc)
	if err != nil {
		return adapter.Credentials{}, fmt.Errorf("%w: key id: %v", domain.ErrCredentialDecryption, err)
	}
	secret, err := r.box.Decrypt(m.GatewayKeySecretEnc)
	if err != nil {
		return adapter.Credentials{}, fmt.Errorf("%w: key secret: %v", domain.ErrCredentialDecryption, err)
	}
	creds := adapter.Credentials{KeyID: keyID, KeySecret: secret}
	if !creds.Complete() {
		return adapter.Credentials{}, errors.Join(domain.ErrCredentialDecryption, errors.New("empty key material"))
	}
	return creds, nil
}
