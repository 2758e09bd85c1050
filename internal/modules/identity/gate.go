// README: Access gate decisions for privileged views.
package identity

type SessionState int

const (
	SessionResolving SessionState = iota
	SessionAbsent
	SessionPresent
)

type GateDecision string

const (
	GatePending       GateDecision = "pending"
	GateRedirectLogin GateDecision = "redirect_login"
	GateAccessDenied  GateDecision = "access_denied"
	GateAllow         GateDecision = "allow"
)

const (
	LoginPath         = "/login"
	DashboardPath     = "/dashboard"
	AccessDeniedTitle = "Access Denied. Admin only."
)

type GateOutcome struct {
	Decision GateDecision `json:"decision"`
	Redirect string       `json:"redirect,omitempty"`
	Notice   string       `json:"notice,omitempty"`
}

// Gate decides nothing while the session is resolving.
func Gate(state SessionState, actor *Actor, need Capability) GateOutcome {
	switch {
	case state == SessionResolving:
		return GateOutcome{Decision: GatePending}
	case state == SessionAbsent || actor == nil:
		return GateOutcome{Decision: GateRedirectLogin, Redirect: LoginPath}
	case !actor.Can(need):
		return GateOutcome{Decision: GateAccessDenied, Redirect: DashboardPath, Notice: AccessDeniedTitle}
	default:
		return GateOutcome{Decision: GateAllow}
	}
}
