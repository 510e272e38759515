package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
)

type stubAuthService struct {
	verifyFn   func(ctx context.Context, email, password string) (*domain.User, error)
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (s *stubAuthService) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	return s.verifyFn(ctx, email, password)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

// newJSONContext builds an echo context with the production validator.
func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (string, *domain.User, error) {
			if email != "ana@example.com" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "tok", &domain.User{ID: "u1", Email: email, Role: domain.RoleUser, PasswordHash: "hash"}, nil
		},
	}
	c, rec := newJSONContext(http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"secret1"}`)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "tok" || resp.User.ID != "u1" || resp.User.Role != "USER" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Error("password hash leaked in response")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	c, _ := newJSONContext(http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"wrong12"}`)

	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_ValidationFailsBeforeService(t *testing.T) {
	bodies := []string{
		`{"email":"not-an-email","password":"secret1"}`,
		`{"email":"ana@example.com","password":"123"}`,
		`{"password":"secret1"}`,
		`{not json`,
	}
	for _, body := range bodies {
		stub := &stubAuthService{
			loginFn: func(context.Context, string, string) (string, *domain.User, error) {
				t.Fatal("service should not be called")
				return "", nil, nil
			},
		}
		c, _ := newJSONContext(http.MethodPost, "/auth/login", body)
		if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("body %s: expected ErrValidation, got %v", body, err)
		}
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Name != "Ana" || in.Email != "ana@example.com" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u1", Name: in.Name, Email: in.Email, Role: domain.RoleUser}, nil
		},
	}
	body := `{"name":"Ana","email":"ana@example.com","password":"secret1","role":"ADMIN"}`
	c, rec := newJSONContext(http.MethodPost, "/auth/register", body)

	if err := NewAuthHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Role != "USER" {
		t.Errorf("expected USER role, got %s", resp.Role)
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	c, _ := newJSONContext(http.MethodPost, "/auth/register", `{"name":"Ana","email":"ana@example.com","password":"secret1"}`)

	if err := NewAuthHandler(stub).Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}
