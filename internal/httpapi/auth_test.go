package httpapi

import (
	"context"
	"strings"
	"testing"
	"time"

	"efuelpos/backend/internal/domain"
)

type stubUserStore struct {
	users map[string]domain.UserAccount
}

func newStubUserStore(seed ...domain.UserAccount) *stubUserStore {
	s := &stubUserStore{users: make(map[string]domain.UserAccount)}
	for _, user := range seed {
		s.users[user.Username] = user
	}
	return s
}

func (s *stubUserStore) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.users[user.Username] = user
	return nil
}

func (s *stubUserStore) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	result := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		result = append(result, user)
	}
	return result, nil
}

func (s *stubUserStore) UpdateUserPassword(_ context.Context, username string, password string) error {
	user, ok := s.users[username]
	if !ok {
		return nil
	}
	user.Password = password
	s.users[username] = user
	return nil
}

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoginAndParseToken(t *testing.T) {
	store := newStubUserStore(domain.UserAccount{
		Username: "admin", Password: "rahasia-sekali", Role: "admin", Active: true, CreatedAt: time.Now().UTC(),
	})
	auth := NewAuthManager(testSecret, time.Hour, store)

	resp, err := auth.Login(domain.LoginRequest{Username: "Admin", Password: "rahasia-sekali"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.Role != "admin" {
		t.Fatalf("login response = %+v", resp)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("actor = %+v", actor)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newStubUserStore(domain.UserAccount{
		Username: "admin", Password: "rahasia-sekali", Role: "admin", Active: true,
	})
	auth := NewAuthManager(testSecret, time.Hour, store)

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "salah"}); err == nil {
		t.Fatal("wrong password must fail")
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "ghost", Password: "rahasia-sekali"}); err == nil {
		t.Fatal("unknown user must fail")
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	store := newStubUserStore(domain.UserAccount{
		Username: "budi", Password: "rahasia-sekali", Role: "cashier", Active: false,
	})
	auth := NewAuthManager(testSecret, time.Hour, store)

	if _, err := auth.Login(domain.LoginRequest{Username: "budi", Password: "rahasia-sekali"}); err == nil {
		t.Fatal("inactive account must fail")
	}
}

func TestBootstrapUpgradesPlainTextPasswords(t *testing.T) {
	store := newStubUserStore(domain.UserAccount{
		Username: "admin", Password: "plain-password", Role: "admin", Active: true,
	})
	NewAuthManager(testSecret, time.Hour, store)

	if !strings.HasPrefix(store.users["admin"].Password, "$2") {
		t.Fatalf("stored password not upgraded to bcrypt: %q", store.users["admin"].Password)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth := NewAuthManager(testSecret, time.Hour, nil)
	if _, err := auth.ParseToken("not-a-token"); err == nil {
		t.Fatal("garbage token must fail")
	}

	// A token signed with another secret is rejected too.
	other := NewAuthManager("another-secret-another-secret!!!", time.Hour, newStubUserStore(domain.UserAccount{
		Username: "admin", Password: "rahasia-sekali", Role: "admin", Active: true,
	}))
	resp, err := other.Login(domain.LoginRequest{Username: "admin", Password: "rahasia-sekali"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("token signed with a different secret must fail")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	store := newStubUserStore(domain.UserAccount{
		Username: "admin", Password: "rahasia-sekali", Role: "admin", Active: true,
	})
	auth := NewAuthManager(testSecret, time.Hour, store)

	token, err := auth.sign("admin", "admin", time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := auth.ParseToken(token); err == nil {
		t.Fatal("expired token must fail")
	}
}

func TestCreateCashierValidation(t *testing.T) {
	auth := NewAuthManager(testSecret, time.Hour, newStubUserStore())

	cases := []domain.CashierCreateRequest{
		{Username: "ab", Password: "password123"},
		{Username: "has space", Password: "password123"},
		{Username: "validname", Password: "123"},
	}
	for i, tc := range cases {
		if _, err := auth.CreateCashier(tc); err == nil {
			t.Errorf("case %d: expected validation failure for %+v", i, tc)
		}
	}
}

func TestCreateCashierAndLogin(t *testing.T) {
	store := newStubUserStore()
	auth := NewAuthManager(testSecret, time.Hour, store)

	cashier, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "Budi", Password: "kasir-rahasia"})
	if err != nil {
		t.Fatalf("create cashier: %v", err)
	}
	if cashier.Username != "budi" || cashier.Role != "cashier" || !cashier.Active {
		t.Fatalf("cashier = %+v", cashier)
	}

	// The store holds a hash, never the plain password.
	if !strings.HasPrefix(store.users["budi"].Password, "$2") {
		t.Fatalf("stored password is not a bcrypt hash: %q", store.users["budi"].Password)
	}

	resp, err := auth.Login(domain.LoginRequest{Username: "budi", Password: "kasir-rahasia"})
	if err != nil {
		t.Fatalf("login as new cashier: %v", err)
	}
	if resp.Role != "cashier" {
		t.Fatalf("role = %s, want cashier", resp.Role)
	}

	if _, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "budi", Password: "kasir-rahasia"}); err == nil {
		t.Fatal("duplicate username must fail")
	}

	listed := auth.ListCashiers()
	if len(listed) != 1 || listed[0].Username != "budi" {
		t.Fatalf("cashiers = %+v", listed)
	}
}
