package auth_test

import (
	"testing"
	"time"

	"github.com/jobscout/jobscout/internal/auth"
	"github.com/jobscout/jobscout/internal/domain/user"
)

func testUser() user.User {
	return user.User{
		ID:    "11111111-1111-1111-1111-111111111111",
		Email: "sam@example.com",
		Role:  user.RoleEmployer,
	}
}

func TestGenerateAndVerify(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	token, err := m.Generate(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if claims.UserID != testUser().ID {
		t.Errorf("user id = %q", claims.UserID)
	}
	if claims.Email != "sam@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.Role != user.RoleEmployer {
		t.Errorf("role = %q", claims.Role)
	}
	if claims.JTI == "" {
		t.Errorf("expected a jti")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := auth.NewManager("test-secret", -time.Minute)

	token, err := m.Generate(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := auth.NewManager("secret-a", time.Hour).Generate(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := auth.NewManager("secret-b", time.Hour).Verify(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	if _, err := m.Verify("not.a.token"); err == nil {
		t.Fatal("expected garbage to be rejected")
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	u := testUser()
	u.Role = "superuser"

	token, err := m.Generate(u)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
}
