package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-enrollment-api/internal/middleware"
	"github.com/noah-isme/course-enrollment-api/internal/models"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
)

type responseEnvelope struct {
	Data    json.RawMessage        `json:"data"`
	Meta    map[string]interface{} `json:"meta"`
	Message string                 `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func newTestContext(method, target, body string, user *models.User) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	c.Request = req
	if user != nil {
		c.Set(middleware.ContextUserKey, user)
	}
	return c, rec
}

var (
	adminUser   = &models.User{ID: "admin-1", Name: "Admin", Role: models.RoleAdmin}
	studentUser = &models.User{ID: "student-1", Name: "Sara", Email: "sara@example.com", Role: models.RoleStudent}
)

type fakeAuthService struct {
	registered models.RegisterRequest
	loginErr   error
	logoutUser string
	logoutReq  models.LogoutRequest
}

func (f *fakeAuthService) Register(_ context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	f.registered = req
	return &models.AuthResponse{AccessToken: "access", RefreshToken: "refresh", User: models.UserInfo{ID: "u-1", Email: req.Email, Role: models.RoleStudent}}, nil
}

func (f *fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.AuthResponse{AccessToken: "access"}, nil
}

func (f *fakeAuthService) RefreshToken(context.Context, models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return &models.RefreshTokenResponse{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

func (f *fakeAuthService) Logout(_ context.Context, userID string, req models.LogoutRequest, _, _ string) error {
	f.logoutUser = userID
	f.logoutReq = req
	return nil
}

func TestAuthHandlerRegisterCreatesSession(t *testing.T) {
	svc := &fakeAuthService{}
	handler := NewAuthHandler(svc)
	c, rec := newTestContext(http.MethodPost, "/auth/register", `{"name":"Sara","email":"sara@example.com","password":"secret1"}`, nil)
	c.Request.Header.Set("User-Agent", "test-agent")

	handler.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "sara@example.com", svc.registered.Email)
	assert.Equal(t, "test-agent", svc.registered.UserAgent)
	assert.Contains(t, rec.Body.String(), `"access_token":"access"`)
}

func TestAuthHandlerRegisterRejectsMalformedJSON(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{})
	c, rec := newTestContext(http.MethodPost, "/auth/register", `{"name":`, nil)

	handler.Register(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestAuthHandlerLoginPropagatesInvalidCredentials(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{loginErr: appErrors.ErrInvalidCredentials})
	c, rec := newTestContext(http.MethodPost, "/auth/login", `{"email":"sara@example.com","password":"wrong"}`, nil)

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Message, decodeEnvelope(t, rec).Error.Message)
}

func TestAuthHandlerLogoutUsesCurrentUser(t *testing.T) {
	svc := &fakeAuthService{}
	handler := NewAuthHandler(svc)
	c, rec := newTestContext(http.MethodPost, "/auth/logout", `{"refresh_token":"refresh"}`, studentUser)

	handler.Logout(c)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, studentUser.ID, svc.logoutUser)
	assert.Equal(t, "refresh", svc.logoutReq.RefreshToken)
}

func TestAuthHandlerMe(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{})

	c, rec := newTestContext(http.MethodGet, "/auth/me", "", studentUser)
	handler.Me(c)
	require.Equal(t, http.StatusOK, rec.Code)
	var user models.User
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &user))
	assert.Equal(t, studentUser.Email, user.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	c, rec = newTestContext(http.MethodGet, "/auth/me", "", nil)
	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
