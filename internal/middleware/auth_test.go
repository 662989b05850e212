package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	"github.com/noah-isme/course-enrollment-api/internal/service"
	appErrors "github.com/noah-isme/course-enrollment-api/pkg/errors"
)

type authenticatorStub struct {
	users map[string]*models.User
	err   error
}

func (s *authenticatorStub) Authenticate(_ context.Context, token string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, service.InvalidTokenMessage)
	}
	return user, nil
}

func newAuthRouter(auth userAuthenticator, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(auth)}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})
	router.GET("/things/:studentId", handlers...)
	return router
}

func serve(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Message
}

func testAuthenticator() *authenticatorStub {
	return &authenticatorStub{users: map[string]*models.User{
		"admin-token":   {ID: "admin-1", Role: models.RoleAdmin},
		"student-token": {ID: "student-1", Role: models.RoleStudent},
	}}
}

func TestJWTRejectsMissingAndMalformedHeadersUniformly(t *testing.T) {
	router := newAuthRouter(testAuthenticator())

	for _, header := range []string{"", "student-token", "Basic abc", "Bearer ", "Bearer unknown"} {
		rec := serve(router, "/things/x", header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Equal(t, service.InvalidTokenMessage, errorMessage(t, rec), header)
	}
}

func TestJWTStoresResolvedUser(t *testing.T) {
	router := newAuthRouter(testAuthenticator())

	rec := serve(router, "/things/x", "Bearer student-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"student-1"}`, rec.Body.String())
}

func TestJWTSurfacesInternalFailures(t *testing.T) {
	auth := &authenticatorStub{err: appErrors.Wrap(errors.New("db down"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve user")}
	router := newAuthRouter(auth)

	rec := serve(router, "/things/x", "Bearer student-token")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRoleGuards(t *testing.T) {
	cases := []struct {
		name   string
		guard  gin.HandlerFunc
		token  string
		path   string
		status int
	}{
		{"admin passes admin only", AdminOnly(), "admin-token", "/things/x", http.StatusOK},
		{"student blocked from admin only", AdminOnly(), "student-token", "/things/x", http.StatusForbidden},
		{"admin blocked from student only", StudentOnly(), "admin-token", "/things/x", http.StatusForbidden},
		{"student passes student only", StudentOnly(), "student-token", "/things/x", http.StatusOK},
		{"student reads own record", AdminOrSelf("studentId"), "student-token", "/things/student-1", http.StatusOK},
		{"student blocked from other record", AdminOrSelf("studentId"), "student-token", "/things/student-2", http.StatusForbidden},
		{"admin reads any record", AdminOrSelf("studentId"), "admin-token", "/things/student-2", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newAuthRouter(testAuthenticator(), tc.guard)
			rec := serve(router, tc.path, "Bearer "+tc.token)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRBACWithoutUserIsUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", AdminOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(router, "/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
