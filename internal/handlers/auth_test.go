package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"messenger-service/internal/auth"
	"messenger-service/internal/middleware"
	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/auth/signup", handler.Signup)
	r.POST("/api/auth/login", handler.Login)
	r.GET("/api/auth/check", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, int64(1))
		c.Set(middleware.UserKey, models.User{ID: 1, FullName: "Alice"})
		c.Next()
	}, handler.Check)
	r.PUT("/api/auth/update-profile", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, int64(1))
		c.Next()
	}, handler.UpdateProfile)
	return r
}

func testTokens() *auth.TokenService {
	return auth.NewTokenService("test-secret", time.Hour)
}

func TestSignupSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	tokens := testTokens()
	handler := NewAuthHandler(users, tokens, new(mocks.MediaStoreMock), nil, zap.NewNop())
	router := setupAuthRouter(handler)

	users.On("Create", mock.Anything, "Alice", "a@x.com", mock.AnythingOfType("string"), "hi").
		Return(models.User{ID: 1, FullName: "Alice", Email: "a@x.com", Bio: "hi"}, nil).Once()

	body := bytes.NewBufferString(`{"fullName":"Alice","email":"a@x.com","password":"secret1","bio":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Success  bool        `json:"success"`
		Token    string      `json:"token"`
		UserData models.User `json:"userData"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Alice", resp.UserData.FullName)

	userID, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), userID)
	users.AssertExpectations(t)
}

func TestSignupMissingFields(t *testing.T) {
	handler := NewAuthHandler(new(mocks.UserRepositoryMock), testTokens(), new(mocks.MediaStoreMock), nil, zap.NewNop())
	router := setupAuthRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString(`{"email":"a@x.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestSignupDuplicateEmail(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), new(mocks.MediaStoreMock), nil, zap.NewNop())
	router := setupAuthRouter(handler)

	users.On("Create", mock.Anything, "Alice", "a@x.com", mock.AnythingOfType("string"), "hi").
		Return(models.User{}, repositories.ErrEmailTaken).Once()

	body := bytes.NewBufferString(`{"fullName":"Alice","email":"a@x.com","password":"secret1","bio":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	users.AssertExpectations(t)
}

func TestLoginSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	tokens := testTokens()
	handler := NewAuthHandler(users, tokens, new(mocks.MediaStoreMock), nil, zap.NewNop())
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	users.On("GetByEmail", mock.Anything, "a@x.com").
		Return(models.User{ID: 1, Email: "a@x.com", PasswordHash: hash}, nil).Once()

	body := bytes.NewBufferString(`{"email":"a@x.com","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)

	userID, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), userID)
	// The password hash must never leak in the projection.
	assert.NotContains(t, rec.Body.String(), hash)
}

func TestLoginWrongPassword(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), new(mocks.MediaStoreMock), nil, zap.NewNop())
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	users.On("GetByEmail", mock.Anything, "a@x.com").
		Return(models.User{ID: 1, PasswordHash: hash}, nil).Once()

	body := bytes.NewBufferString(`{"email":"a@x.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), new(mocks.MediaStoreMock), nil, zap.NewNop())
	router := setupAuthRouter(handler)

	users.On("GetByEmail", mock.Anything, "nobody@x.com").
		Return(models.User{}, repositories.ErrUserNotFound).Once()

	body := bytes.NewBufferString(`{"email":"nobody@x.com","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckReturnsResolvedIdentity(t *testing.T) {
	handler := NewAuthHandler(new(mocks.UserRepositoryMock), testTokens(), new(mocks.MediaStoreMock), nil, zap.NewNop())
	router := setupAuthRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fullName":"Alice"`)
}

func TestUpdateProfileWithAvatar(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	media := new(mocks.MediaStoreMock)
	handler := NewAuthHandler(users, testTokens(), media, nil, zap.NewNop())
	router := setupAuthRouter(handler)

	media.On("Upload", mock.Anything, "rawimage").Return("http://localhost/uploads/aa/aab.png", nil).Once()
	users.On("UpdateProfile", mock.Anything, int64(1), "Alice", "new bio", "http://localhost/uploads/aa/aab.png").
		Return(models.User{ID: 1, FullName: "Alice", Bio: "new bio", ProfilePic: "http://localhost/uploads/aa/aab.png"}, nil).Once()

	body := bytes.NewBufferString(`{"fullName":"Alice","bio":"new bio","profilePic":"rawimage"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/auth/update-profile", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	media.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestUpdateProfileTextOnly(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	media := new(mocks.MediaStoreMock)
	handler := NewAuthHandler(users, testTokens(), media, nil, zap.NewNop())
	router := setupAuthRouter(handler)

	users.On("UpdateProfile", mock.Anything, int64(1), "Alice", "new bio", "").
		Return(models.User{ID: 1, FullName: "Alice", Bio: "new bio"}, nil).Once()

	body := bytes.NewBufferString(`{"fullName":"Alice","bio":"new bio"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/auth/update-profile", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	media.AssertNotCalled(t, "Upload")
	users.AssertExpectations(t)
}
