package service

import (
	"github.com/codyde/girlsgotgame-sub002/repository"

	"gorm.io/gorm"
)

// PermissionService decides whether a principal may see or touch a player's
// data. It has no side effects and is consulted before every mutation.
type PermissionService struct {
	userRepository         *repository.UserRepository
	manualPlayerRepository *repository.ManualPlayerRepository
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{
		userRepository:         repository.NewUserRepository(db),
		manualPlayerRepository: repository.NewManualPlayerRepository(db),
	}
}

// CanView resolves, in order: admin, self, parent-child relation, and the
// permissive default for unlinked manual players.
func (s *PermissionService) CanView(principal *repository.User, ref repository.PlayerRef) (bool, error) {
	return s.resolve(principal, ref)
}

// CanMutate currently carries the same resolution order as CanView.
func (s *PermissionService) CanMutate(principal *repository.User, ref repository.PlayerRef) (bool, error) {
	return s.resolve(principal, ref)
}

func (s *PermissionService) resolve(principal *repository.User, ref repository.PlayerRef) (bool, error) {
	if principal.IsAdmin() {
		return true, nil
	}

	registeredId := 0
	switch ref.Kind {
	case repository.PlayerKindRegistered:
		registeredId = ref.UserId
	case repository.PlayerKindManual:
		manual, err := s.manualPlayerRepository.GetManualPlayerById(ref.ManualId)
		if err != nil {
			return false, err
		}
		if !manual.IsLinked() {
			// TODO: unlinked manual players are visible and mutable by any
			// authenticated user; revisit once manual player creation requires
			// a guardian link.
			return true, nil
		}
		registeredId = *manual.LinkedUserId
	default:
		return false, nil
	}

	if principal.Id == registeredId {
		return true, nil
	}
	return s.userRepository.HasParentChildRelation(principal.Id, registeredId)
}
