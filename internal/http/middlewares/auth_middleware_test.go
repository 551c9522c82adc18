package middlewares_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jobscout/jobscout/internal/apperrors"
	"github.com/jobscout/jobscout/internal/auth"
	"github.com/jobscout/jobscout/internal/domain/user"
	"github.com/jobscout/jobscout/internal/http/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f *fakeVerifier) Verify(token string) (*auth.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

type fakeLoader struct {
	u   user.User
	err error
}

func (f *fakeLoader) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.err != nil {
		return user.User{}, f.err
	}
	return f.u, nil
}

func protectedRouter(verifier *fakeVerifier, loader *fakeLoader) *gin.Engine {
	mw := middlewares.NewAuthMiddleware(verifier, loader, apperrors.Responder{})

	r := gin.New()
	r.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		id, _ := middlewares.UserIDFromContext(c)
		role, _ := middlewares.RoleFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	claims := &auth.Claims{UserID: "u-1", Email: "sam@example.com", Role: user.RoleUser}
	account := user.User{ID: "u-1", Email: "sam@example.com", Role: user.RoleUser}

	tests := []struct {
		name           string
		prepare        func(req *http.Request)
		verifier       *fakeVerifier
		loader         *fakeLoader
		wantStatusCode int
	}{
		{
			name: "cookie_accepted",
			prepare: func(req *http.Request) {
				req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: "tok"})
			},
			verifier:       &fakeVerifier{claims: claims},
			loader:         &fakeLoader{u: account},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "bearer_accepted",
			prepare: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer tok")
			},
			verifier:       &fakeVerifier{claims: claims},
			loader:         &fakeLoader{u: account},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "no_credentials",
			prepare:        func(req *http.Request) {},
			verifier:       &fakeVerifier{claims: claims},
			loader:         &fakeLoader{u: account},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "bad_token",
			prepare: func(req *http.Request) {
				req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: "bad"})
			},
			verifier:       &fakeVerifier{err: errors.New("signature invalid")},
			loader:         &fakeLoader{u: account},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "account_gone",
			prepare: func(req *http.Request) {
				req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: "tok"})
			},
			verifier:       &fakeVerifier{claims: claims},
			loader:         &fakeLoader{err: user.ErrNotFound},
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := protectedRouter(tt.verifier, tt.loader)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tt.prepare(req)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	mw := middlewares.NewAuthMiddleware(nil, nil, apperrors.Responder{})

	tests := []struct {
		name           string
		role           user.Role
		allowed        []user.Role
		wantStatusCode int
	}{
		{name: "allowed", role: user.RoleEmployer, allowed: []user.Role{user.RoleEmployer, user.RoleAdmin}, wantStatusCode: http.StatusOK},
		{name: "denied", role: user.RoleUser, allowed: []user.Role{user.RoleEmployer, user.RoleAdmin}, wantStatusCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/gated",
				func(c *gin.Context) { middlewares.SetIdentity(c, "u-1", "x@example.com", tt.role) },
				mw.RequireRole(tt.allowed...),
				func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gated", nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	mw := middlewares.NewAuthMiddleware(nil, nil, apperrors.Responder{})

	r := gin.New()
	r.GET("/gated", mw.RequireRole(user.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gated", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d", w.Code)
	}
}

func TestIdentityAccessors(t *testing.T) {
	r := gin.New()
	r.GET("/whoami", func(c *gin.Context) {
		middlewares.SetIdentity(c, "u-1", "sam@example.com", user.RoleEmployer)
	}, func(c *gin.Context) {
		id, _ := middlewares.UserIDFromContext(c)
		email, _ := middlewares.EmailFromContext(c)
		role, _ := middlewares.RoleFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "email": email, "role": role})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	var body struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.ID != "u-1" || body.Email != "sam@example.com" || body.Role != "employer" {
		t.Errorf("identity = %+v", body)
	}
}
