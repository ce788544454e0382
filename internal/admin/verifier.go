package admin

import "context"

// ServiceVerifier adapts the in-process token verifier and service to the
// Verifier interface, avoiding a loopback HTTP call when the checker runs
// inside the API process itself.
type ServiceVerifier struct {
	Tokens  TokenVerifier
	Service *Service
}

// VerifyAdmin resolves the token locally and checks the administrators
// relation. An invalid token is an error here; the checker maps every error
// to not-admin.
func (v ServiceVerifier) VerifyAdmin(ctx context.Context, token string) (bool, error) {
	principal, err := v.Tokens.VerifyToken(token)
	if err != nil {
		return false, err
	}
	return v.Service.Check(ctx, principal.ID).IsAdmin(), nil
}

var _ Verifier = ServiceVerifier{}
