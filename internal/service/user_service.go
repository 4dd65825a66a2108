package service

import (
	"context"
	"errors"
	"strings"

	"blinklean/internal/domain"
	"blinklean/internal/models"
)

type UserService struct {
	users domain.UserRepository
}

func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

// ResolveByPhone returns the user for a phone number, creating it on first use.
func (s *UserService) ResolveByPhone(ctx context.Context, phone string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, domain.UnauthorizedError{Msg: "requester phone is missing"}
	}

	user, err := s.users.GetUserByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		return nil, err
	}

	user = &models.User{Phone: phone}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
