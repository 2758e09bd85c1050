// README: Resolver turns a verified session into an Actor, once per session.
package identity

import (
	"context"
	"strings"

	"vdrop/internal/logger"
)

// ProfileLookup returns nil, nil when the user has no directory row yet.
type ProfileLookup interface {
	LookupRole(ctx context.Context, userID string) (*StoredProfile, error)
}

type Resolver struct {
	profiles ProfileLookup
	policy   *Policy
	cache    Cache
	log      logger.ILogger
}

// NewResolver accepts a nil cache; every call then hits the profile store.
func NewResolver(profiles ProfileLookup, policy *Policy, cache Cache, log logger.ILogger) *Resolver {
	if log == nil {
		log = logger.NewNop()
	}
	return &Resolver{profiles: profiles, policy: policy, cache: cache, log: log}
}

// Resolve never fails: lookup errors degrade to customer without caching.
func (r *Resolver) Resolve(ctx context.Context, userID, email string) Actor {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, userID)
		if err != nil {
			r.log.Warning("capability cache read failed", logger.String("uid", userID), logger.Error(err))
		} else if cached != nil && cached.Email == strings.ToLower(email) {
			return *cached
		}
	}

	// The generation is read before the lookup so an Invalidate that lands
	// while the lookup is in flight keeps its stale result out of the cache.
	var (
		gen    int64
		genErr error
	)
	if r.cache != nil {
		gen, genErr = r.cache.Generation(ctx, userID)
		if genErr != nil {
			r.log.Warning("capability cache generation read failed", logger.String("uid", userID), logger.Error(genErr))
		}
	}

	profile, err := r.profiles.LookupRole(ctx, userID)
	if err != nil {
		r.log.Error("profile role lookup failed", logger.String("uid", userID), logger.Error(err))
		return Actor{UserID: userID, Email: strings.ToLower(email), Role: RoleCustomer}
	}

	actor := r.policy.Resolve(userID, email, profile)
	if r.cache != nil && genErr == nil {
		if err := r.cache.SetIfGeneration(ctx, actor, gen); err != nil {
			r.log.Warning("capability cache write failed", logger.String("uid", userID), logger.Error(err))
		}
	}
	return actor
}

// Invalidate drops the cached capabilities after a role edit or soft-delete.
func (r *Resolver) Invalidate(ctx context.Context, userID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, userID); err != nil {
		r.log.Warning("capability cache invalidate failed", logger.String("uid", userID), logger.Error(err))
	}
}
