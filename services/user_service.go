package services

import (
	"context"
	"time"

	"dreamSyncAPI/internal/apperr"
	"dreamSyncAPI/internal/memstore"
	"dreamSyncAPI/internal/portal"
)

type UserService struct {
	users *memstore.Table[portal.User]
	now   func() time.Time
}

func NewUserService(users *memstore.Table[portal.User]) *UserService {
	return &UserService{users: users, now: time.Now}
}

func (s *UserService) GetAll(ctx context.Context) ([]portal.User, error) {
	return s.users.All(), nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (*portal.User, error) {
	u, ok := s.users.Get(id)
	if !ok {
		return nil, apperr.NotFound("user with Id %d not found", id)
	}
	return &u, nil
}

func (s *UserService) GetByRole(ctx context.Context, role portal.Role) ([]portal.User, error) {
	return s.users.Where(func(u portal.User) bool { return u.Role == role }), nil
}

func (s *UserService) Create(ctx context.Context, name, email string, role portal.Role) (*portal.User, error) {
	if name == "" || email == "" {
		return nil, apperr.Validation("name and email are required")
	}
	if role != portal.RoleCoach && role != portal.RoleClient {
		return nil, apperr.Validation("role must be coach or client")
	}
	created := s.users.Insert(func(id int) portal.User {
		return portal.User{
			ID:        id,
			Name:      name,
			Email:     email,
			Role:      role,
			CreatedAt: s.now(),
		}
	})
	return &created, nil
}

func (s *UserService) Update(ctx context.Context, id int, name, email, avatarURL *string) (*portal.User, error) {
	updated, ok := s.users.Update(id, func(u portal.User) portal.User {
		if name != nil {
			u.Name = *name
		}
		if email != nil {
			u.Email = *email
		}
		if avatarURL != nil {
			u.AvatarURL = *avatarURL
		}
		return u
	})
	if !ok {
		return nil, apperr.NotFound("user with Id %d not found", id)
	}
	return &updated, nil
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	if _, ok := s.users.Delete(id); !ok {
		return apperr.NotFound("user with Id %d not found", id)
	}
	return nil
}
