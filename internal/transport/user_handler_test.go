package transport

import (
	"encoding/json"
	"net/http"
	"testing"

	"beestore/internal/domain"
	"beestore/internal/repository"
	"beestore/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRouter(users service.UserService, userID uuid.UUID) chi.Router {
	r := chi.NewRouter()
	NewUserHandler(users, &stubCheckoutService{}, nopLogger).
		RegisterRoutes(r, asUser(userID, domain.RoleCustomer), passThrough)
	return r
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Login:           "honeybee",
		Email:           "bee@example.com",
		Password:        "Secret123!",
		ConfirmPassword: "Secret123!",
		FullName:        "Honey Bee",
	}
}

func TestProperty_InvalidRegistrationDataIsRejected(t *testing.T) {
	invalid := []func(*RegisterRequest){
		func(r *RegisterRequest) { r.Login = "" },
		func(r *RegisterRequest) { r.Login = "bee" },
		func(r *RegisterRequest) { r.Login = "honey-bee" },
		func(r *RegisterRequest) { r.Email = "not-an-email" },
		func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "password1", "password1" },
		func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "Secret 123", "Secret 123" },
		func(r *RegisterRequest) { r.ConfirmPassword = "Secret124!" },
		func(r *RegisterRequest) { r.FullName = "" },
	}

	properties := gopter.NewProperties(nil)

	properties.Property("registration with invalid data returns validation errors", prop.ForAll(
		func(pick int) bool {
			registered := false
			users := &stubUserService{register: func(in service.RegisterInput) (*domain.User, error) {
				registered = true
				return &domain.User{ID: uuid.New()}, nil
			}}

			reqBody := validRegistration()
			invalid[pick](&reqBody)
			w := serve(userRouter(users, uuid.New()), http.MethodPost, "/api/auth/register", jsonBody(t, reqBody))

			if w.Code != http.StatusBadRequest || registered {
				t.Logf("FAIL: case %d got %d", pick, w.Code)
				return false
			}
			_, ok := decodeError(t, w).Error.Details["validation_errors"]
			return ok
		},
		gen.IntRange(0, len(invalid)-1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRegister_ReturnsProfile(t *testing.T) {
	w := serve(userRouter(&stubUserService{}, uuid.New()), http.MethodPost, "/api/auth/register", jsonBody(t, validRegistration()))
	require.Equal(t, http.StatusCreated, w.Code)

	var profile UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "honeybee", profile.Login)
	assert.Equal(t, "bee@example.com", profile.Email)
	assert.Equal(t, domain.RoleCustomer, profile.Role)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegister_Duplicate(t *testing.T) {
	users := &stubUserService{register: func(service.RegisterInput) (*domain.User, error) {
		return nil, repository.ErrUserAlreadyExists
	}}

	w := serve(userRouter(users, uuid.New()), http.MethodPost, "/api/auth/register", jsonBody(t, validRegistration()))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	users := &stubUserService{login: func(string, string) (string, string, *domain.User, error) {
		return "", "", nil, service.ErrInvalidCredentials
	}}

	w := serve(userRouter(users, uuid.New()), http.MethodPost, "/api/auth/login",
		jsonBody(t, LoginRequest{Login: "honeybee", Password: "nope"}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, service.ErrInvalidCredentials.Error(), decodeError(t, w).Error.Message)
}

func TestLogin_MalformedBody(t *testing.T) {
	w := serve(userRouter(&stubUserService{}, uuid.New()), http.MethodPost, "/api/auth/login", jsonBody(t, "{not json"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", decodeError(t, w).Error.Message)
}

func TestChangePassword(t *testing.T) {
	userID := uuid.New()
	var gotUser uuid.UUID
	users := &stubUserService{change: func(id uuid.UUID, oldPassword, newPassword string) error {
		gotUser = id
		if oldPassword != "Secret123!" {
			return service.ErrWrongPassword
		}
		return nil
	}}
	router := userRouter(users, userID)

	w := serve(router, http.MethodPut, "/api/profile/password", jsonBody(t, ChangePasswordRequest{
		OldPassword: "Secret123!", NewPassword: "Fresh456#", ConfirmPassword: "Fresh456#",
	}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, gotUser)

	w = serve(router, http.MethodPut, "/api/profile/password", jsonBody(t, ChangePasswordRequest{
		OldPassword: "Wrong123!", NewPassword: "Fresh456#", ConfirmPassword: "Fresh456#",
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodPut, "/api/profile/password", jsonBody(t, ChangePasswordRequest{
		OldPassword: "Secret123!", NewPassword: "Fresh456#", ConfirmPassword: "Fresh457#",
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileRoutesRequireIdentity(t *testing.T) {
	r := chi.NewRouter()
	NewUserHandler(&stubUserService{}, &stubCheckoutService{}, nopLogger).RegisterRoutes(r, passThrough, passThrough)

	w := serve(r, http.MethodGet, "/api/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrdersReturnsEmptyList(t *testing.T) {
	w := serve(userRouter(&stubUserService{}, uuid.New()), http.MethodGet, "/api/profile/orders", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
