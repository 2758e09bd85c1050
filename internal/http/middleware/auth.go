// README: Auth middleware; verifies the Firebase ID token and resolves the caller's capabilities.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vdrop/internal/infra"
	"vdrop/internal/modules/identity"
)

const (
	ctxUID   = "auth.uid"
	ctxEmail = "auth.email"
	ctxRole  = "auth.role"
	ctxActor = "auth.actor"
)

// ActorResolver is satisfied by *identity.Resolver.
type ActorResolver interface {
	Resolve(ctx context.Context, userID, email string) identity.Actor
}

// Auth rejects requests without a valid bearer token with 401.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abortGate(c, identity.Gate(identity.SessionAbsent, nil, identity.CapViewAdmin))
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimSpace(raw))
		if err != nil || token == nil {
			abortGate(c, identity.Gate(identity.SessionAbsent, nil, identity.CapViewAdmin))
			return
		}
		c.Set(ctxUID, token.UID)
		c.Set(ctxEmail, token.Email)
		if role, ok := token.Claims["role"].(string); ok {
			c.Set(ctxRole, role)
		}
		c.Next()
	}
}

// Identity resolves the authenticated caller into an Actor. Must run after Auth.
func Identity(resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := CallerUID(c)
		if uid == "" {
			abortGate(c, identity.Gate(identity.SessionAbsent, nil, identity.CapViewAdmin))
			return
		}
		actor := resolver.Resolve(c.Request.Context(), uid, CallerEmail(c))
		if role, ok := identity.ParseRole(CallerRole(c)); ok {
			actor.ClaimRole = role
		}
		c.Set(ctxActor, actor)
		c.Next()
	}
}

// Require gates a route group on a capability of the resolved Actor.
func Require(need identity.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(ctxActor)
		actor, resolved := v.(identity.Actor)
		state := identity.SessionPresent
		if !resolved {
			state = identity.SessionAbsent
		}
		outcome := identity.Gate(state, &actor, need)
		if outcome.Decision != identity.GateAllow {
			abortGate(c, outcome)
			return
		}
		c.Next()
	}
}

func abortGate(c *gin.Context, outcome identity.GateOutcome) {
	switch outcome.Decision {
	case identity.GateAccessDenied:
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": outcome.Notice, "redirect": outcome.Redirect})
	default:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "redirect": outcome.Redirect})
	}
}

// CallerUID returns the verified uid, or "" outside Auth.
func CallerUID(c *gin.Context) string {
	return c.GetString(ctxUID)
}

func CallerEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// CallerRole returns the role custom claim. Authorization decisions use
// CallerActor instead; the claim can lag behind the directory and only
// seeds Actor.ClaimRole.
func CallerRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

// CallerActor returns the resolved Actor, or a capability-less zero Actor.
func CallerActor(c *gin.Context) identity.Actor {
	if v, ok := c.Get(ctxActor); ok {
		if actor, ok := v.(identity.Actor); ok {
			return actor
		}
	}
	return identity.Actor{UserID: CallerUID(c), Email: CallerEmail(c), Role: identity.RoleCustomer}
}
