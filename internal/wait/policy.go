package wait

import (
	"context"
	"errors"
	"fmt"

	"liar-game/internal/kv"
)

// ErrPolicyViolation is returned when a create/join request is rejected
// before any state is touched.
var ErrPolicyViolation = errors.New("policy violation")

// JoinPolicy gates room creation and joining. A rejection aborts the
// operation before the coordinator touches the store.
type JoinPolicy interface {
	CreateWaitRoomPolicy(ctx context.Context, userID string) error
	JoinWaitRoomPolicy(ctx context.Context, userID string) error
}

// HostOncePolicy allows each user at most one open hosted room, and keeps
// hosts from joining someone else's room while theirs is open.
type HostOncePolicy struct {
	store kv.Store
}

func NewHostOncePolicy(store kv.Store) *HostOncePolicy {
	return &HostOncePolicy{store: store}
}

func (p *HostOncePolicy) CreateWaitRoomPolicy(ctx context.Context, userID string) error {
	hosting, err := p.store.Exists(ctx, hostIndexKey(userID))
	if err != nil {
		return err
	}
	if hosting {
		return fmt.Errorf("%w: user %s already hosts an open room", ErrPolicyViolation, userID)
	}
	return nil
}

func (p *HostOncePolicy) JoinWaitRoomPolicy(ctx context.Context, userID string) error {
	hosting, err := p.store.Exists(ctx, hostIndexKey(userID))
	if err != nil {
		return err
	}
	if hosting {
		return fmt.Errorf("%w: user %s hosts an open room and can't join another", ErrPolicyViolation, userID)
	}
	return nil
}
