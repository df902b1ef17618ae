package service

import "github.com/aussiebroadwan/starterkit/internal/users/domain"

// CanModify allows admins to modify anyone and users to modify themselves.
func CanModify(actor domain.User, targetID string) error {
	if actor.Role == domain.RoleAdmin || actor.ID == targetID {
		return nil
	}
	return ErrForbidden
}

// CanUpdate extends CanModify: only admins may change roles.
func CanUpdate(actor domain.User, targetID string, in UpdateUserInput) error {
	if err := CanModify(actor, targetID); err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin && in.Role != nil {
		return ErrForbidden
	}
	return nil
}
