package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iliyamo/roadside-assist/internal/model"
	"github.com/iliyamo/roadside-assist/internal/utils"
)

func TestSignupAndSignin(t *testing.T) {
	f := newFixture(t)
	svc := f.auth("")
	ctx := context.Background()

	res, err := svc.Signup(ctx, SignupInput{Phone: " +919999999999 ", Password: "hunter22"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected a token")
	}
	if res.User.Role != model.RoleUser || res.User.Phone != "+919999999999" {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	id, role, err := utils.NewTokenIssuer("test-secret", 0).Parse(res.Token)
	if err != nil || id != res.User.ID || role != "user" {
		t.Fatalf("token claims mismatch: %d %s %v", id, role, err)
	}

	in, err := svc.Signin(ctx, SigninInput{Phone: "+919999999999", Password: "hunter22"})
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	if in.User.ID != res.User.ID {
		t.Fatalf("expected same user, got %d", in.User.ID)
	}
}

func TestSignupDuplicatePhone(t *testing.T) {
	f := newFixture(t)
	// the existing phone wins even over a bad admin secret
	_, err := f.auth("s3cret").Signup(context.Background(), SignupInput{Phone: "+910000000001", Password: "pw", Role: model.RoleAdmin})
	if !errors.Is(err, ErrPhoneExists) {
		t.Fatalf("expected ErrPhoneExists, got %v", err)
	}
}

func TestAdminSignupNeedsSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.auth("s3cret").Signup(ctx, SignupInput{Phone: "+911", Password: "pw", Role: model.RoleAdmin}); !errors.Is(err, ErrAdminSignup) {
		t.Fatalf("expected ErrAdminSignup without secret, got %v", err)
	}
	if _, err := f.auth("s3cret").Signup(ctx, SignupInput{Phone: "+911", Password: "pw", Role: model.RoleAdmin, AdminSecret: "wrong"}); !errors.Is(err, ErrAdminSignup) {
		t.Fatalf("expected ErrAdminSignup with wrong secret, got %v", err)
	}
	if _, err := f.auth("").Signup(ctx, SignupInput{Phone: "+911", Password: "pw", Role: model.RoleAdmin, AdminSecret: ""}); !errors.Is(err, ErrAdminSignup) {
		t.Fatalf("expected ErrAdminSignup when disabled, got %v", err)
	}
	res, err := f.auth("s3cret").Signup(ctx, SignupInput{Phone: "+911", Password: "pw", Role: model.RoleAdmin, AdminSecret: "s3cret"})
	if err != nil {
		t.Fatalf("admin signup: %v", err)
	}
	if res.User.Role != model.RoleAdmin {
		t.Fatalf("expected admin, got %s", res.User.Role)
	}
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)
	var ve *ValidationError
	if _, err := f.auth("").Signup(context.Background(), SignupInput{Phone: "+912", Password: "pw", Role: "owner"}); !errors.As(err, &ve) || ve.Field != "role" {
		t.Fatalf("expected role validation error, got %v", err)
	}
	long := strings.Repeat("p", 73)
	if _, err := f.auth("").Signup(context.Background(), SignupInput{Phone: "+912", Password: long}); !errors.As(err, &ve) || ve.Field != "password" {
		t.Fatalf("expected password validation error, got %v", err)
	}
}

func TestSigninFailures(t *testing.T) {
	f := newFixture(t)
	svc := f.auth("")
	ctx := context.Background()
	if _, err := svc.Signup(ctx, SignupInput{Phone: "+913", Password: "right", Role: model.RoleWorker}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := svc.Signin(ctx, SigninInput{Phone: "+913", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Signin(ctx, SigninInput{Phone: "+000", Password: "right"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown phone, got %v", err)
	}
	if _, err := svc.Signin(ctx, SigninInput{Phone: "+913", Password: "right", Role: model.RoleUser}); !errors.Is(err, ErrRoleMismatch) {
		t.Fatalf("expected ErrRoleMismatch, got %v", err)
	}
	if _, err := svc.Signin(ctx, SigninInput{Phone: "+913", Password: "right", Role: model.RoleWorker}); err != nil {
		t.Fatalf("expected matching role to pass, got %v", err)
	}
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	svc := f.auth("")
	u, err := svc.Me(context.Background(), f.customer)
	if err != nil || u.ID != f.customer.ID {
		t.Fatalf("expected own profile, got %+v %v", u, err)
	}
	if _, err := svc.Me(context.Background(), model.Actor{ID: 999, Role: model.RoleUser}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
