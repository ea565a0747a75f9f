// internal/auth/middleware_test.go
package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"olympiad-platform/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID uint, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("could not sign token: %v", err)
	}
	return signed
}

func TestJWTMiddlewarePlacesIdentity(t *testing.T) {
	var got Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := CallerIdentity(r)
		if !ok {
			t.Errorf("identity missing from context")
		}
		got = identity
	})

	req := httptest.NewRequest("GET", "/api/editions", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 7, models.RoleGuardian))
	rec := httptest.NewRecorder()

	JWTMiddleware(testSecret)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.UserID != 7 || got.Role != models.RoleGuardian {
		t.Errorf("unexpected identity %+v", got)
	}
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("handler must not run without a token")
	})

	req := httptest.NewRequest("GET", "/api/editions", nil)
	rec := httptest.NewRecorder()

	JWTMiddleware(testSecret)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddlewareRejectsForgedToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("handler must not run with a forged token")
	})

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7, "role": models.RoleAdmin, "exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := forged.SignedString([]byte("other-secret"))

	req := httptest.NewRequest("GET", "/api/editions", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	JWTMiddleware(testSecret)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	ran := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
	})
	protected := JWTMiddleware(testSecret)(RequireAdmin(next))

	req := httptest.NewRequest("DELETE", "/api/editions/1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 7, models.RoleGuardian))
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized || ran {
		t.Fatalf("guardian must not pass the admin guard, got %d", rec.Code)
	}

	req = httptest.NewRequest("DELETE", "/api/editions/1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 1, models.RoleAdmin))
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !ran {
		t.Fatalf("admin should pass the guard, got %d", rec.Code)
	}
}
