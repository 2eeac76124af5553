package auth

import (
	"context"

	userDatamodel "github.com/umoc-outing-club/gear-locker/internal/core/datamodel/user"
)

// PermissionChecker answers role questions from a stored permission level.
type PermissionChecker interface {
	HasLevel(ctx context.Context, permLvl, required int) (bool, error)
	CanApproveCustody(permLvl int) bool
	CanManageGear(permLvl int) bool
	CanManageUsers(permLvl int) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() *DefaultPermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasLevel(ctx context.Context, permLvl, required int) (bool, error) {
	return permLvl >= required, nil
}

func (c *DefaultPermissionChecker) CanApproveCustody(permLvl int) bool {
	return permLvl >= userDatamodel.PermLeader
}

func (c *DefaultPermissionChecker) CanManageGear(permLvl int) bool {
	return permLvl >= userDatamodel.PermLockerManager
}

func (c *DefaultPermissionChecker) CanManageUsers(permLvl int) bool {
	return permLvl >= userDatamodel.PermLockerManager
}
