package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"taskautomator/internal/auth"
	"taskautomator/internal/database"
	"taskautomator/internal/models"
	"go.uber.org/zap"
)

type fakeUserStore struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: make(map[string]*models.User),
		byID:    make(map[uuid.UUID]*models.User),
	}
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, database.ErrNotFound
	}
	return user, nil
}

func newAuthRouter(t *testing.T, store database.UserStore) *mux.Router {
	t.Helper()
	sessions, err := auth.NewService([]byte("0123456789abcdef0123456789abcdef"), time.Hour, false)
	if err != nil {
		t.Fatalf("Failed to create session service: %v", err)
	}
	h := NewAuthHandler(store, sessions, zap.NewNop())
	r := mux.NewRouter()
	sub := r.PathPrefix("/api/auth").Subrouter()
	h.RegisterPublicRoutes(sub)
	h.RegisterProtectedRoutes(sub)
	return r
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestSignup(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	router := newAuthRouter(t, store)

	body := `{"email": "New.User@Example.com", "name": "New User", "password": "correct horse"}`
	req := httptest.NewRequest("POST", "/api/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var user models.User
	decodeBody(t, rec, &user)
	if user.Email != "new.user@example.com" {
		t.Errorf("Expected lowercased email, got '%s'", user.Email)
	}

	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("Expected a session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("Expected session cookie to be HttpOnly")
	}

	stored, ok := store.byEmail["new.user@example.com"]
	if !ok {
		t.Fatal("Expected user persisted under lowercased email")
	}
	if stored.PasswordHash == "correct horse" {
		t.Error("Expected password to be hashed, not stored in plaintext")
	}
	if !auth.CheckPassword(stored.PasswordHash, "correct horse") {
		t.Error("Expected stored hash to verify against the original password")
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	router := newAuthRouter(t, store)

	existing := &models.User{ID: uuid.New(), Email: "taken@example.com", Name: "First"}
	store.byEmail[existing.Email] = existing
	store.byID[existing.ID] = existing

	body := `{"email": "taken@example.com", "name": "Second", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var respBody errorBody
	decodeBody(t, rec, &respBody)
	if respBody.Error != "An account with this email already exists" {
		t.Errorf("Unexpected error message '%s'", respBody.Error)
	}
}

func TestSignup_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "bad email", body: `{"email": "not-an-email", "name": "x", "password": "password123"}`},
		{name: "short password", body: `{"email": "a@b.com", "name": "x", "password": "short"}`},
		{name: "missing name", body: `{"email": "a@b.com", "password": "password123"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newAuthRouter(t, newFakeUserStore())

			req := httptest.NewRequest("POST", "/api/auth/signup", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	router := newAuthRouter(t, store)

	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &models.User{ID: uuid.New(), Email: "user@example.com", Name: "User", PasswordHash: hash}
	store.byEmail[user.Email] = user
	store.byID[user.ID] = user

	body := `{"email": "user@example.com", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if sessionCookie(rec) == nil {
		t.Error("Expected a session cookie on login")
	}
}

func TestLogin_InvalidCredentialsIndistinguishable(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	router := newAuthRouter(t, store)

	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &models.User{ID: uuid.New(), Email: "user@example.com", Name: "User", PasswordHash: hash}
	store.byEmail[user.Email] = user

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown email", body: `{"email": "nobody@example.com", "password": "password123"}`},
		{name: "wrong password", body: `{"email": "user@example.com", "password": "wrongpass"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("Expected status 401, got %d: %s", rec.Code, rec.Body.String())
			}
			var respBody errorBody
			decodeBody(t, rec, &respBody)
			if respBody.Error != "Invalid email or password" {
				t.Errorf("Expected identical error message, got '%s'", respBody.Error)
			}
		})
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t, newFakeUserStore())

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("Expected a cleared session cookie")
	}
	if cookie.MaxAge >= 0 {
		t.Errorf("Expected negative MaxAge to expire the cookie, got %d", cookie.MaxAge)
	}
}

func TestMe(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t, newFakeUserStore())
	user := testUser()

	req := authedRequest("GET", "/api/auth/me", nil, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var me models.User
	decodeBody(t, rec, &me)
	if me.ID != user.ID {
		t.Errorf("Expected caller's user, got %s", me.ID)
	}
}

func TestMe_Unauthenticated(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t, newFakeUserStore())

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}
