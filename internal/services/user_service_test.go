package services

import (
	"context"
	"errors"
	"testing"

	"freight-market-api-server/internal/auth"
	"freight-market-api-server/internal/models"
)

func TestRegisterValidation(t *testing.T) {
	service := NewUserService(newStubUserRepo())

	_, _, err := service.Register(context.Background(), RegisterInput{
		Email:    "not-an-email",
		Password: "short",
		Role:     "admin",
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(vErr.Fields) != 4 {
		t.Errorf("fields = %d, want 4 (email, password, name, role)", len(vErr.Fields))
	}
}

func TestRegisterAndLogin(t *testing.T) {
	auth.Init("test-secret", "1h")
	ctx := context.Background()
	service := NewUserService(newStubUserRepo())

	user, token, err := service.Register(ctx, RegisterInput{
		Email:    "  Ali@Example.com ",
		Password: "correct horse",
		Name:     "Ali",
		Role:     models.RoleDriver,
		Driver:   &models.DriverDetails{LicenseNumber: "E123"},
		Employer: &models.EmployerDetails{CompanyName: "ignored"},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if token == "" {
		t.Errorf("expected a session token")
	}
	if user.Email != "ali@example.com" {
		t.Errorf("email = %q, want normalized lowercase", user.Email)
	}
	if user.Driver == nil || user.Employer != nil {
		t.Errorf("detail blocks = %+v/%+v, want only the driver block", user.Driver, user.Employer)
	}
	if user.Password == "correct horse" {
		t.Errorf("password stored in plain text")
	}

	// Same email again.
	_, _, err = service.Register(ctx, RegisterInput{
		Email:    "ali@example.com",
		Password: "correct horse",
		Name:     "Ali",
		Role:     models.RoleDriver,
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate register err = %v, want ErrConflict", err)
	}

	if _, _, err := service.Login(ctx, "ALI@example.com", "correct horse"); err != nil {
		t.Errorf("Login: %v", err)
	}
	if _, _, err := service.Login(ctx, "ali@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := service.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}
