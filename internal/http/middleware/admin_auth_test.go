package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func officeToken(t *testing.T, secret, subject string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: subject}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAdminJWT(t *testing.T) {
	cases := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{
			name:   "no secret disables the admin surface",
			secret: "",
			header: "Bearer anything",
			want:   http.StatusUnauthorized,
		},
		{
			name:   "missing header",
			secret: "office-secret",
			header: "",
			want:   http.StatusUnauthorized,
		},
		{
			name:   "not a bearer scheme",
			secret: "office-secret",
			header: "Basic YWRtaW46bXYyMDI0",
			want:   http.StatusUnauthorized,
		},
		{
			name:   "wrong signing secret",
			secret: "office-secret",
			header: "Bearer " + officeToken(t, "other-secret", "admin", time.Hour),
			want:   http.StatusUnauthorized,
		},
		{
			name:   "subject other than the one login issues",
			secret: "office-secret",
			header: "Bearer " + officeToken(t, "office-secret", "receptionist", time.Hour),
			want:   http.StatusUnauthorized,
		},
		{
			name:   "expired token",
			secret: "office-secret",
			header: "Bearer " + officeToken(t, "office-secret", "admin", -time.Minute),
			want:   http.StatusUnauthorized,
		},
		{
			name:   "token without expiry",
			secret: "office-secret",
			header: "Bearer " + officeToken(t, "office-secret", "admin", 0),
			want:   http.StatusUnauthorized,
		},
		{
			name:   "valid login token",
			secret: "office-secret",
			header: "Bearer " + officeToken(t, "office-secret", "admin", time.Hour),
			want:   http.StatusOK,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mw := AdminJWT(tc.secret)
			req := httptest.NewRequest(http.MethodGet, "/admin/appointments", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestAdminJWTExposesClaims(t *testing.T) {
	mw := AdminJWT("office-secret")
	req := httptest.NewRequest(http.MethodGet, "/admin/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+officeToken(t, "office-secret", "admin", time.Hour))
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := AdminClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("expected claims in context")
		}
		if claims.Subject != "admin" {
			t.Fatalf("subject = %q, want admin", claims.Subject)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
