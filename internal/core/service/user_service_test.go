package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID      map[string]*domain.User
	seq       int
	createErr error // if set, Create returns this error
	findCalls int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	clone := cloneUser(u)
	clone.ID = fmt.Sprintf("u%d", r.seq)
	r.byID[clone.ID] = clone
	return cloneUser(clone), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.findCalls++
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.byID))
	for i := 1; i <= r.seq; i++ {
		if u, ok := r.byID[fmt.Sprintf("u%d", i)]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if p.Email != nil {
		for otherID, other := range r.byID {
			if otherID != id && other.Email == *p.Email {
				return nil, domain.ErrUserExists
			}
		}
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	u.UpdatedAt = p.UpdatedAt
	return cloneUser(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubAuditRecorder struct {
	events []domain.AuditEvent
}

func (a *stubAuditRecorder) Enqueue(e domain.AuditEvent) {
	a.events = append(a.events, e)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func newUserSvc(repo *stubUserRepo, audit *stubAuditRecorder) *UserService {
	if audit == nil {
		return NewUserService(repo, nil, bcrypt.MinCost, discardLogger)
	}
	return NewUserService(repo, audit, bcrypt.MinCost, discardLogger)
}

func strPtr(s string) *string { return &s }

func adminCtx() context.Context {
	return domain.WithIdentity(context.Background(), domain.Identity{UserID: "admin-1", Role: domain.RoleAdmin})
}

// ---------------------------------------------------------------------------
// CreateUser tests
// ---------------------------------------------------------------------------

func TestUserService_Create_Success(t *testing.T) {
	repo := newStubUserRepo()
	audit := &stubAuditRecorder{}
	svc := newUserSvc(repo, audit)

	user, err := svc.CreateUser(adminCtx(), ports.CreateUserInput{
		Name: "Alice", Email: "  Alice@Example.com ", Password: "secret1", Role: domain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.Role != domain.RoleAdmin {
		t.Errorf("expected role ADMIN, got %q", user.Role)
	}
	if user.PasswordHash == "secret1" {
		t.Fatal("password must be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.CreatedAt.IsZero() || !user.CreatedAt.Equal(user.UpdatedAt) {
		t.Errorf("expected matching non-zero timestamps, got %v / %v", user.CreatedAt, user.UpdatedAt)
	}

	if len(audit.events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(audit.events))
	}
	ev := audit.events[0]
	if ev.Action != domain.AuditUserCreated || ev.ActorID != "admin-1" || ev.SubjectID != user.ID {
		t.Errorf("unexpected audit event: %+v", ev)
	}
}

func TestUserService_Create_DefaultsRoleToUser(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(), nil)

	user, err := svc.CreateUser(context.Background(), ports.CreateUserInput{
		Name: "Bob", Email: "bob@example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Errorf("expected default role USER, got %q", user.Role)
	}
}

func TestUserService_Create_Validation(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(), nil)

	cases := []struct {
		name string
		in   ports.CreateUserInput
	}{
		{"missing name", ports.CreateUserInput{Email: "a@example.com", Password: "secret1"}},
		{"missing email", ports.CreateUserInput{Name: "A", Password: "secret1"}},
		{"short password", ports.CreateUserInput{Name: "A", Email: "a@example.com", Password: "12345"}},
		{"unknown role", ports.CreateUserInput{Name: "A", Email: "a@example.com", Password: "secret1", Role: "ROOT"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateUser(context.Background(), tc.in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestUserService_Create_DuplicateEmailLeavesExistingUnchanged(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo, nil)

	first, err := svc.CreateUser(context.Background(), ports.CreateUserInput{
		Name: "Carol", Email: "carol@example.com", Password: "original",
	})
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err = svc.CreateUser(context.Background(), ports.CreateUserInput{
		Name: "Impostor", Email: "CAROL@example.com", Password: "another", Role: domain.RoleAdmin,
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	stored := repo.byID[first.ID]
	if stored.Name != "Carol" || stored.Role != domain.RoleUser || stored.PasswordHash != first.PasswordHash {
		t.Errorf("existing record changed: %+v", stored)
	}
	if len(repo.byID) != 1 {
		t.Errorf("expected 1 stored user, got %d", len(repo.byID))
	}
}

func TestUserService_Create_RepoError(t *testing.T) {
	repo := newStubUserRepo()
	repo.createErr = errors.New("db unavailable")
	audit := &stubAuditRecorder{}
	svc := newUserSvc(repo, audit)

	if _, err := svc.CreateUser(context.Background(), ports.CreateUserInput{
		Name: "Dan", Email: "dan@example.com", Password: "secret1",
	}); err == nil {
		t.Fatal("expected error when repo fails, got nil")
	}
	if len(audit.events) != 0 {
		t.Error("failed create must not be audited")
	}
}

// ---------------------------------------------------------------------------
// Get / List / Update / Delete tests
// ---------------------------------------------------------------------------

func seedUser(t *testing.T, svc *UserService, email string) *domain.User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), ports.CreateUserInput{
		Name: "Seed", Email: email, Password: "secret1",
	})
	if err != nil {
		t.Fatalf("seed %s: %v", email, err)
	}
	return u
}

func TestUserService_Get_NotFound(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(), nil)

	if _, err := svc.GetUser(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_List(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(), nil)
	seedUser(t, svc, "a@example.com")
	seedUser(t, svc, "b@example.com")

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestUserService_Update_Partial(t *testing.T) {
	repo := newStubUserRepo()
	audit := &stubAuditRecorder{}
	svc := newUserSvc(repo, audit)
	u := seedUser(t, svc, "erin@example.com")

	later := u.UpdatedAt.Add(time.Minute)
	svc.now = func() time.Time { return later }

	updated, err := svc.UpdateUser(adminCtx(), u.ID, ports.UpdateUserInput{Name: strPtr("Erin"), Password: strPtr("newpass")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Erin" || updated.Email != "erin@example.com" {
		t.Errorf("unexpected fields after update: %+v", updated)
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Errorf("expected updatedAt bumped to %v, got %v", later, updated.UpdatedAt)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newpass")); err != nil {
		t.Error("expected new password to be hashed and stored")
	}
	last := audit.events[len(audit.events)-1]
	if last.Action != domain.AuditUserUpdated || last.SubjectID != u.ID {
		t.Errorf("unexpected audit event: %+v", last)
	}
}

func TestUserService_Update_EmailConflict(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(), nil)
	seedUser(t, svc, "taken@example.com")
	u := seedUser(t, svc, "free@example.com")

	_, err := svc.UpdateUser(context.Background(), u.ID, ports.UpdateUserInput{Email: strPtr("taken@example.com")})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserService_Update_Validation(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(), nil)
	u := seedUser(t, svc, "f@example.com")
	bad := domain.Role("ROOT")

	inputs := []ports.UpdateUserInput{
		{Name: strPtr("   ")},
		{Password: strPtr("123")},
		{Role: &bad},
	}
	for i, in := range inputs {
		if _, err := svc.UpdateUser(context.Background(), u.ID, in); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("input %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestUserService_Update_EmptyPatchReturnsCurrent(t *testing.T) {
	audit := &stubAuditRecorder{}
	svc := newUserSvc(newStubUserRepo(), audit)
	u := seedUser(t, svc, "g@example.com")

	got, err := svc.UpdateUser(context.Background(), u.ID, ports.UpdateUserInput{})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Errorf("expected %s, got %s", u.ID, got.ID)
	}
	if len(audit.events) != 1 {
		t.Errorf("no-op update must not be audited, got %d events", len(audit.events))
	}
}

func TestUserService_Update_NotFound(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(), nil)

	_, err := svc.UpdateUser(context.Background(), "missing", ports.UpdateUserInput{Name: strPtr("X")})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	repo := newStubUserRepo()
	audit := &stubAuditRecorder{}
	svc := newUserSvc(repo, audit)
	u := seedUser(t, svc, "h@example.com")

	deleted, err := svc.DeleteUser(adminCtx(), u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if deleted.ID != u.ID {
		t.Errorf("expected deleted record %s, got %s", u.ID, deleted.ID)
	}
	if _, ok := repo.byID[u.ID]; ok {
		t.Error("user still stored after delete")
	}
	last := audit.events[len(audit.events)-1]
	if last.Action != domain.AuditUserDeleted || last.ActorID != "admin-1" {
		t.Errorf("unexpected audit event: %+v", last)
	}

	if _, err := svc.DeleteUser(adminCtx(), u.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("second delete: expected ErrUserNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// EnsureAdmin tests
// ---------------------------------------------------------------------------

func TestUserService_EnsureAdmin_CreatesOnce(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserSvc(repo, nil)

	admin, created, err := svc.EnsureAdmin(context.Background(), "Root", "Root@Example.com", "secret1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || admin.Role != domain.RoleAdmin {
		t.Fatalf("expected new ADMIN account, got created=%v role=%s", created, admin.Role)
	}

	again, created, err := svc.EnsureAdmin(context.Background(), "Root", "root@example.com", "other-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("second call should not create a new account")
	}
	if again.ID != admin.ID {
		t.Errorf("expected existing admin %s, got %s", admin.ID, again.ID)
	}
	if len(repo.byID) != 1 {
		t.Errorf("expected 1 stored user, got %d", len(repo.byID))
	}
}

func TestUserService_EnsureAdmin_RejectsWeakPassword(t *testing.T) {
	svc := newUserSvc(newStubUserRepo(), nil)
	if _, _, err := svc.EnsureAdmin(context.Background(), "Root", "root@example.com", "123"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
