package repository

import "fmt"

type PlayerKind string

const (
	PlayerKindRegistered PlayerKind = "registered"
	PlayerKindManual     PlayerKind = "manual"
)

// PlayerRef is the two-variant participant identity: a registered account or a
// manually entered placeholder. Roster rows persist it as a pair of nullable
// foreign keys with exactly one set; domain code only ever sees this type.
type PlayerRef struct {
	Kind     PlayerKind
	UserId   int
	ManualId int
}

func RegisteredRef(userId int) PlayerRef {
	return PlayerRef{Kind: PlayerKindRegistered, UserId: userId}
}

func ManualRef(manualId int) PlayerRef {
	return PlayerRef{Kind: PlayerKindManual, ManualId: manualId}
}

func (r PlayerRef) IsRegistered() bool {
	return r.Kind == PlayerKindRegistered
}

func (r PlayerRef) IsManual() bool {
	return r.Kind == PlayerKindManual
}

func (r PlayerRef) String() string {
	if r.IsRegistered() {
		return fmt.Sprintf("registered:%d", r.UserId)
	}
	return fmt.Sprintf("manual:%d", r.ManualId)
}
