package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"beestore/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveWithToken(handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestProperty_ProtectedEndpointsRejectMissingTokens(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests without authorization header are rejected", prop.ForAll(
		func(pathSuffix string, method string) bool {
			handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())

			req := httptest.NewRequest(method, "/api/"+pathSuffix, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
		gen.OneConstOf("GET", "POST", "PUT", "DELETE"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ExpiredTokensAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("expired tokens are rejected with 401", prop.ForAll(
		func(role string) bool {
			handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())
			token := signToken(t, jwt.MapClaims{
				"user_id": uuid.New().String(),
				"role":    role,
				"exp":     time.Now().Add(-1 * time.Hour).Unix(),
			})

			return serveWithToken(handler, "Bearer "+token).Code == http.StatusUnauthorized
		},
		gen.OneConstOf("customer", "admin"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ValidTokensCarryTypedIdentity(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid tokens put the user ID and resolved role in the context", prop.ForAll(
		func(role string) bool {
			userID := uuid.New()
			token := signToken(t, jwt.MapClaims{
				"user_id": userID.String(),
				"role":    role,
				"exp":     time.Now().Add(time.Hour).Unix(),
			})

			handlerCalled := false
			handler := AuthMiddleware(testSecret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				ctxUserID, ok1 := GetUserID(r.Context())
				ctxRole, ok2 := GetUserRole(r.Context())
				if !ok1 || !ok2 || ctxUserID != userID || ctxRole != domain.Role(role) {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))

			code := serveWithToken(handler, "Bearer "+token).Code
			return handlerCalled && code == http.StatusOK
		},
		gen.OneConstOf("customer", "admin"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthMiddleware_RejectsBadClaims(t *testing.T) {
	handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())
	exp := time.Now().Add(time.Hour).Unix()

	cases := map[string]jwt.MapClaims{
		"unknown role":     {"user_id": uuid.New().String(), "role": "superuser", "exp": exp},
		"missing role":     {"user_id": uuid.New().String(), "exp": exp},
		"malformed userid": {"user_id": "42", "role": "customer", "exp": exp},
		"missing userid":   {"role": "admin", "exp": exp},
	}

	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			w := serveWithToken(handler, "Bearer "+signToken(t, claims))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_RejectsForeignSigningMethod(t *testing.T) {
	handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": uuid.New().String(),
		"role":    "admin",
	})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serveWithToken(handler, "Bearer "+unsigned).Code)
}

func TestAuthMiddleware_RequiresExpiry(t *testing.T) {
	handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())
	token := signToken(t, jwt.MapClaims{"user_id": uuid.New().String(), "role": "customer"})

	assert.Equal(t, http.StatusUnauthorized, serveWithToken(handler, "Bearer "+token).Code)
}

func TestAuthMiddleware_ExpiredMessage(t *testing.T) {
	handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())
	token := signToken(t, jwt.MapClaims{
		"user_id": uuid.New().String(),
		"role":    "customer",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})

	w := serveWithToken(handler, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")
}

func TestProperty_InvalidTokenFormatRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("invalid token formats are rejected", prop.ForAll(
		func(invalidToken string) bool {
			handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())
			return serveWithToken(handler, "Bearer "+invalidToken).Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_MissingBearerPrefixRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("tokens without Bearer prefix are rejected", prop.ForAll(
		func(token string) bool {
			handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())
			return serveWithToken(handler, token).Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
