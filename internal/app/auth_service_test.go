package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"glucotrack/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	getByIDFn    func(ctx context.Context, id int64) (*domain.User, error)
	createFn     func(ctx context.Context, user domain.User, profile domain.Profile) (*domain.User, error)
	countFn      func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user domain.User, profile domain.Profile) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, user, profile)
	}
	user.ID = 1
	return &user, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) (int64, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if m.createFn != nil {
		return m.createFn(ctx, userID, token, expiresAt)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return 0, nil
}

func TestAuthService_Signup_Success(t *testing.T) {
	ctx := context.Background()

	var created domain.User
	var createdProfile domain.Profile
	users := &mockUserRepo{
		createFn: func(_ context.Context, u domain.User, p domain.Profile) (*domain.User, error) {
			created, createdProfile = u, p
			u.ID = 7
			return &u, nil
		},
	}
	var sessionUser int64
	sessions := &mockSessionRepo{
		createFn: func(_ context.Context, userID int64, token string, expiresAt time.Time) error {
			sessionUser = userID
			if token == "" {
				t.Error("token should not be empty")
			}
			return nil
		},
	}

	svc := NewAuthService(users, sessions, time.Hour)
	token, user, err := svc.Signup(ctx, "  Ana@Example.com ", "s3cretpass", "Ana")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Error("expected token")
	}
	if user.ID != 7 || sessionUser != 7 {
		t.Errorf("expected user 7 with a session, got user %d session %d", user.ID, sessionUser)
	}
	if created.Email != "ana@example.com" {
		t.Errorf("expected normalized email, got %q", created.Email)
	}
	if created.PasswordHash == "" || created.PasswordHash == "s3cretpass" {
		t.Error("password must be stored hashed")
	}
	if createdProfile.Name != "Ana" {
		t.Errorf("expected default profile name Ana, got %q", createdProfile.Name)
	}
}

func TestAuthService_Signup_DuplicateAccount(t *testing.T) {
	users := &mockUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 1, Email: email}, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{}, 0)

	_, _, err := svc.Signup(context.Background(), "ana@example.com", "s3cretpass", "Ana")
	if !errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestAuthService_Signup_DuplicateFromRepo(t *testing.T) {
	users := &mockUserRepo{
		createFn: func(context.Context, domain.User, domain.Profile) (*domain.User, error) {
			return nil, domain.ErrDuplicateAccount
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{}, 0)

	_, _, err := svc.Signup(context.Background(), "ana@example.com", "s3cretpass", "Ana")
	if !errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{}, 0)

	tests := []struct {
		name, email, password string
	}{
		{"bad email", "not-an-email", "s3cretpass"},
		{"empty email", "", "s3cretpass"},
		{"short password", "ana@example.com", "short"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Signup(context.Background(), tc.email, tc.password, "")
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAuthService_Signup_DefaultName(t *testing.T) {
	var name string
	users := &mockUserRepo{
		createFn: func(_ context.Context, u domain.User, p domain.Profile) (*domain.User, error) {
			name = p.Name
			u.ID = 1
			return &u, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	if _, _, err := svc.Signup(context.Background(), "bob@example.com", "s3cretpass", " "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "bob" {
		t.Errorf("expected name derived from email, got %q", name)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	password := "testpass123"
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	users := &mockUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			if email != "test@example.com" {
				t.Errorf("expected normalized email, got %q", email)
			}
			return &domain.User{ID: 1, Email: email, PasswordHash: string(hash)}, nil
		},
	}

	sessions := &mockSessionRepo{
		createFn: func(_ context.Context, userID int64, token string, expiresAt time.Time) error {
			if userID != 1 {
				t.Errorf("expected userID 1, got %d", userID)
			}
			if time.Until(expiresAt) <= 0 {
				t.Error("expected expiry in the future")
			}
			return nil
		},
	}

	svc := NewAuthService(users, sessions, time.Hour)
	token, user, err := svc.Login(ctx, "Test@Example.com", password)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Error("expected token, got empty string")
	}
	if user.ID != 1 {
		t.Errorf("expected user 1, got %d", user.ID)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)

	users := &mockUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 1, Email: email, PasswordHash: string(hash)}, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{}, 0)

	_, _, err := svc.Login(context.Background(), "test@example.com", "wrongpass")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{}, 0)
	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_SSOUserHasNoPassword(t *testing.T) {
	users := &mockUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 1, Email: email}, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	_, _, err := svc.Login(context.Background(), "sso@example.com", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	users := &mockUserRepo{
		getByEmailFn: func(context.Context, string) (*domain.User, error) {
			return nil, storeErr
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{}, 0)

	_, _, err := svc.Login(context.Background(), "test@example.com", "password1")
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("store failure must not be reported as invalid credentials")
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestAuthService_Login_UnknownUserStillComparesHash(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{}, 0)
	var compared [][]byte
	svc.compareHash = func(hash, password []byte) error {
		compared = append(compared, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(compared) != 1 {
		t.Fatalf("expected one hash comparison, got %d", len(compared))
	}
	if cost, err := bcrypt.Cost(compared[0]); err != nil || cost != bcrypt.DefaultCost {
		t.Fatalf("expected a default-cost bcrypt hash, got cost %d err %v", cost, err)
	}
}

func TestAuthService_CurrentUser_Valid(t *testing.T) {
	sessions := &mockSessionRepo{
		getByTokenFn: func(_ context.Context, tok string) (*domain.Session, error) {
			return &domain.Session{Token: tok, UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	users := &mockUserRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, Email: "test@example.com"}, nil
		},
	}

	svc := NewAuthService(users, sessions, 0)
	user, err := svc.CurrentUser(context.Background(), "validtoken")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Email != "test@example.com" {
		t.Errorf("expected test@example.com, got %s", user.Email)
	}
}

func TestAuthService_CurrentUser_Expired(t *testing.T) {
	deleted := false
	sessions := &mockSessionRepo{
		getByTokenFn: func(_ context.Context, tok string) (*domain.Session, error) {
			return &domain.Session{Token: tok, UserID: 1, ExpiresAt: time.Now().Add(-time.Hour)}, nil
		},
		deleteFn: func(context.Context, string) error {
			deleted = true
			return nil
		},
	}

	svc := NewAuthService(&mockUserRepo{}, sessions, 0)
	_, err := svc.CurrentUser(context.Background(), "expiredtoken")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
	if !deleted {
		t.Error("expected session to be deleted")
	}
}

func TestAuthService_CurrentUser_Unknown(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{}, 0)
	for _, tok := range []string{"", "missing"} {
		if _, err := svc.CurrentUser(context.Background(), tok); !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("token %q: expected ErrNotAuthenticated, got %v", tok, err)
		}
	}
}

func TestAuthService_Logout(t *testing.T) {
	var deleted string
	sessions := &mockSessionRepo{
		deleteFn: func(_ context.Context, tok string) error {
			deleted = tok
			return nil
		},
	}
	svc := NewAuthService(&mockUserRepo{}, sessions, 0)
	if err := svc.Logout(context.Background(), "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "tok" {
		t.Errorf("expected tok to be deleted, got %q", deleted)
	}
}

func TestAuthService_ValidateForwardAuth_ExistingUser(t *testing.T) {
	users := &mockUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 1, Email: email}, nil
		},
		createFn: func(context.Context, domain.User, domain.Profile) (*domain.User, error) {
			t.Fatal("existing user must not be recreated")
			return nil, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{}, 0)

	user, err := svc.ValidateForwardAuth(context.Background(), "ssouser")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Email != "ssouser" {
		t.Errorf("expected ssouser, got %s", user.Email)
	}
}

func TestAuthService_ValidateForwardAuth_NewUser(t *testing.T) {
	users := &mockUserRepo{
		createFn: func(_ context.Context, u domain.User, p domain.Profile) (*domain.User, error) {
			if u.PasswordHash != "" {
				t.Error("forward-auth users must not get a password")
			}
			u.ID = 2
			return &u, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{}, 0)

	user, err := svc.ValidateForwardAuth(context.Background(), "newssouser")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.ID != 2 {
		t.Errorf("expected new user 2, got %d", user.ID)
	}
	if _, err := svc.ValidateForwardAuth(context.Background(), ""); err == nil {
		t.Error("expected error for empty header")
	}
}

func TestAuthService_LoginWithUser_RaceOnCreate(t *testing.T) {
	calls := 0
	users := &mockUserRepo{
		getByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			calls++
			if calls == 1 {
				return nil, nil
			}
			return &domain.User{ID: 9, Email: email}, nil
		},
		createFn: func(context.Context, domain.User, domain.Profile) (*domain.User, error) {
			return nil, domain.ErrDuplicateAccount
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{}, 0)

	token, user, err := svc.LoginWithUser(context.Background(), "sso@example.com", "SSO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" || user.ID != 9 {
		t.Fatalf("expected session for user 9, got token=%q user=%v", token, user)
	}
}

func TestAuthService_SweepExpired(t *testing.T) {
	sessions := &mockSessionRepo{
		deleteExpiredFn: func(context.Context) (int64, error) { return 3, nil },
	}
	svc := NewAuthService(&mockUserRepo{}, sessions, 0)
	n, err := svc.SweepExpired(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("expected 3 swept, got %d (%v)", n, err)
	}
}
