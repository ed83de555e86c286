// Package member talks to the member service, the system of record for user
// accounts. The coordinators only need username lookups from it.
package member

import "context"

// Service resolves user ids to display names.
type Service interface {
	FindUsernameByID(ctx context.Context, userID string) (string, error)
}

// Func adapts a plain function to Service, mainly for tests.
type Func func(ctx context.Context, userID string) (string, error)

func (f Func) FindUsernameByID(ctx context.Context, userID string) (string, error) {
	return f(ctx, userID)
}
