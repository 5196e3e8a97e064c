package auth

import "context"

// ContextWithPrincipal attaches a principal to ctx without going through the
// session middleware. The terminal front-end uses it after logging in;
// handler tests use it to act as a given user.
func ContextWithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// ContextAs is shorthand for ContextWithPrincipal with only a user id and role.
func ContextAs(ctx context.Context, userID int64, role string) context.Context {
	return ContextWithPrincipal(ctx, &Principal{UserID: userID, Role: role, Name: role})
}
