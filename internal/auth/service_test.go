package auth

import (
	"context"
	"testing"
	"time"

	"github.com/attendly/timeclock-backend/internal/users"
	pkgAuth "github.com/attendly/timeclock-backend/pkg/auth"
	"github.com/attendly/timeclock-backend/pkg/auth/session"
	"github.com/attendly/timeclock-backend/pkg/config"
	"github.com/attendly/timeclock-backend/pkg/db/models"
	"github.com/attendly/timeclock-backend/pkg/enums"
	pkgerrors "github.com/attendly/timeclock-backend/pkg/errors"
	"github.com/attendly/timeclock-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "timeclock-test",
	ExpirationMinutes: 15,
}

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type fakeUserRepo struct {
	byEmail map[string]*models.User
	created []users.CreateUserDTO
	logins  []uuid.UUID
	roles   map[uuid.UUID]enums.Role
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: map[string]*models.User{},
		roles:   map[uuid.UUID]enums.Role{},
	}
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := f.byEmail[email]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	f.created = append(f.created, dto)
	user := dto.ToModel()
	user.ID = uuid.New()
	f.byEmail[dto.Email] = user
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.logins = append(f.logins, id)
	return nil
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role enums.Role) error {
	f.roles[id] = role
	return nil
}

type fakeSession struct {
	generated map[string]string
	revoked   []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{generated: map[string]string{}}
}

func (f *fakeSession) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.generated[accessID] = token
	return token, nil
}

func (f *fakeSession) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.generated[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.generated, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	f.generated[newID] = token
	return newID, token, nil
}

func (f *fakeSession) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	delete(f.generated, accessID)
	return nil
}

func newTestService(t *testing.T, repo *fakeUserRepo, sess *fakeSession) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sess,
		JWTConfig:      testJWTConfig,
		PasswordConfig: testPasswordConfig,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string, role enums.Role) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	repo.byEmail[email] = user
	return user
}

func TestLoginKnownUser(t *testing.T) {
	repo := newFakeUserRepo()
	sess := newFakeSession()
	seeded := seedUser(t, repo, "jane@example.com", "correct horse battery", enums.RoleEmployee)
	svc := newTestService(t, repo, sess)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Jane@Example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.ID != seeded.ID {
		t.Fatalf("expected user %s, got %s", seeded.ID, resp.User.ID)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if len(repo.logins) != 1 || repo.logins[0] != seeded.ID {
		t.Fatalf("expected last login recorded for %s", seeded.ID)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Role != enums.RoleEmployee {
		t.Fatalf("unexpected role %s", claims.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	sess := newFakeSession()
	seedUser(t, repo, "jane@example.com", "correct horse battery", enums.RoleEmployee)
	svc := newTestService(t, repo, sess)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "jane@example.com",
		Password: "wrong password!",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
	if len(repo.logins) != 0 {
		t.Fatal("login must not be recorded on failure")
	}
}

func TestLoginProvisionsFirstSeenUser(t *testing.T) {
	repo := newFakeUserRepo()
	sess := newFakeSession()
	svc := newTestService(t, repo, sess)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "new@example.com",
		Password: "fresh password 1",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one provisioned user, got %d", len(repo.created))
	}
	if repo.created[0].Role != enums.RoleEmployee {
		t.Fatalf("provisioned role should be employee, got %s", repo.created[0].Role)
	}
	if resp.User.Email != "new@example.com" {
		t.Fatalf("unexpected email %q", resp.User.Email)
	}

	// Same credentials log in again without re-provisioning.
	if _, err := svc.Login(context.Background(), LoginRequest{
		Email:    "new@example.com",
		Password: "fresh password 1",
	}); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatal("second login must not create another user")
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	repo := newFakeUserRepo()
	sess := newFakeSession()
	seedUser(t, repo, "jane@example.com", "correct horse battery", enums.RoleAdmin)
	svc := newTestService(t, repo, sess)

	login, err := svc.Login(context.Background(), LoginRequest{
		Email:    "jane@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.AccessToken == login.AccessToken {
		t.Fatal("expected a new access token")
	}

	// The old pair is dead after rotation.
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED on replay, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	repo := newFakeUserRepo()
	sess := newFakeSession()
	seedUser(t, repo, "jane@example.com", "correct horse battery", enums.RoleEmployee)
	svc := newTestService(t, repo, sess)

	login, err := svc.Login(context.Background(), LoginRequest{
		Email:    "jane@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), login.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sess.revoked) != 1 {
		t.Fatalf("expected one revoked session, got %d", len(sess.revoked))
	}
}

func TestPromoteUnknownUser(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo(), newFakeSession())

	_, err := svc.Promote(context.Background(), PromoteRequest{Email: "ghost@example.com"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestPromoteGrantsAdmin(t *testing.T) {
	repo := newFakeUserRepo()
	seeded := seedUser(t, repo, "jane@example.com", "correct horse battery", enums.RoleEmployee)
	svc := newTestService(t, repo, newFakeSession())

	dto, err := svc.Promote(context.Background(), PromoteRequest{Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if dto.Role != enums.RoleAdmin {
		t.Fatalf("expected admin role, got %s", dto.Role)
	}
	if repo.roles[seeded.ID] != enums.RoleAdmin {
		t.Fatal("role update not persisted")
	}
}
