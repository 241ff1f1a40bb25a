// Package identity maps verified identity-provider sessions to local users,
// provisioning a local record on first sight.
package identity

import (
	"context"
	"strings"
	"time"

	"rentfolio/internal/util"
	"rentfolio/pkg/domain"
	"rentfolio/pkg/store"
)

const (
	lookupAttempts = 3
	lookupDelay    = 200 * time.Millisecond
)

// TokenVerifier validates a session token and returns provider claims.
type TokenVerifier interface {
	Verify(token string) (Claims, error)
}

// Resolver turns session tokens into local users.
type Resolver struct {
	verifier TokenVerifier
	store    store.Store
	sleep    func(time.Duration)
}

// NewResolver constructs a resolver over the given verifier and store.
func NewResolver(verifier TokenVerifier, st store.Store) *Resolver {
	return &Resolver{verifier: verifier, store: st, sleep: time.Sleep}
}

// CurrentUser resolves the token to a local user, creating the user record on
// first successful authentication. The returned user carries properties (with
// tenants and documents) and tenants (with their property) so dashboard
// callers avoid follow-up queries. Any failure resolves to (nil, false):
// callers treat that as "no current user", never as a fatal error.
func (r *Resolver) CurrentUser(ctx context.Context, token string) (*domain.User, bool) {
	claims, err := r.verifier.Verify(token)
	if err != nil {
		util.LoggerFromContext(ctx).Debug("token rejected", "err", err)
		return nil, false
	}
	email := strings.TrimSpace(claims.Email)
	if email == "" {
		// Authenticated but incomplete identity. Treated as no current user.
		return nil, false
	}

	user, ok, err := r.lookupWithRetry(email)
	if err != nil {
		util.LoggerFromContext(ctx).Error("user lookup failed", "err", err)
		return nil, false
	}
	if ok {
		return &user, true
	}

	created := domain.User{
		ID:         util.NewID(),
		ExternalID: strings.TrimSpace(claims.Subject),
		Email:      email,
		Name:       displayName(claims.GivenName, claims.FamilyName),
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.store.CreateUser(created); err != nil {
		// A concurrent first request may have provisioned the row already.
		user, ok, lookupErr := r.store.GetUserByEmailWithRelations(email)
		if lookupErr == nil && ok {
			return &user, true
		}
		util.LoggerFromContext(ctx).Error("user provisioning failed", "err", err)
		return nil, false
	}
	util.LoggerFromContext(ctx).Info("provisioned user", "email", email)
	user, ok, err = r.store.GetUserByEmailWithRelations(email)
	if err != nil || !ok {
		return nil, false
	}
	return &user, true
}

func (r *Resolver) lookupWithRetry(email string) (domain.User, bool, error) {
	var lastErr error
	for attempt := 0; attempt < lookupAttempts; attempt++ {
		if attempt > 0 {
			r.sleep(lookupDelay)
		}
		user, ok, err := r.store.GetUserByEmailWithRelations(email)
		if err == nil {
			return user, ok, nil
		}
		lastErr = err
	}
	return domain.User{}, false, lastErr
}

func displayName(given, family string) *string {
	name := strings.TrimSpace(strings.TrimSpace(given) + " " + strings.TrimSpace(family))
	if name == "" {
		return nil
	}
	return &name
}
