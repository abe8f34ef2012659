package services

import (
	"context"
	"errors"
	"strings"

	"freight-market-api-server/internal/auth"
	"freight-market-api-server/internal/models"
	"freight-market-api-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     string
	Driver   *models.DriverDetails
	Employer *models.EmployerDetails
}

// UpdateProfileInput is a shallow profile edit; nil fields stay as is.
// Role and email are immutable after registration.
type UpdateProfileInput struct {
	Name     *string
	Phone    *string
	Driver   *models.DriverDetails
	Employer *models.EmployerDetails
}

type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, input UpdateProfileInput) (*models.User, error)
	SetAvatar(ctx context.Context, id primitive.ObjectID, url string) error
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	var fields fieldErrors
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		fields.add("email", "a valid email is required")
	}
	if len(input.Password) < 8 {
		fields.add("password", "password must be at least 8 characters")
	}
	if input.Name == "" {
		fields.add("name", "name is required")
	}
	if !models.ValidRole(input.Role) {
		fields.add("role", "role must be driver, employer or individual")
	}
	if err := fields.err(); err != nil {
		return nil, "", err
	}

	hashed, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Email:    input.Email,
		Password: hashed,
		Name:     input.Name,
		Phone:    input.Phone,
		Role:     input.Role,
		Rating:   models.Rating{},
	}
	// Only the detail block matching the role is stored.
	switch input.Role {
	case models.RoleDriver:
		user.Driver = input.Driver
	case models.RoleEmployer:
		user.Employer = input.Employer
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", conflict("email already registered")
		}
		return nil, "", err
	}

	token, err := auth.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !user.Active {
		return nil, "", ErrForbidden
	}
	if !auth.CheckPasswordHash(password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *userService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id primitive.ObjectID, input UpdateProfileInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := bson.M{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, &ValidationError{Fields: []FieldError{{Field: "name", Message: "name cannot be empty"}}}
		}
		patch["name"] = *input.Name
	}
	if input.Phone != nil {
		patch["phone"] = *input.Phone
	}
	// Detail blocks only apply to the matching role.
	if input.Driver != nil && user.Role == models.RoleDriver {
		patch["driverDetails"] = *input.Driver
	}
	if input.Employer != nil && user.Role == models.RoleEmployer {
		patch["employerDetails"] = *input.Employer
	}

	if len(patch) > 0 {
		if err := s.users.Update(ctx, id, patch); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *userService) SetAvatar(ctx context.Context, id primitive.ObjectID, url string) error {
	return s.users.Update(ctx, id, bson.M{"avatarURL": url})
}
