package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/utils"
)

func newAuthHandler(t *testing.T) (sqlmock.Sqlmock, *AuthHandler, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	cfg := config.Config{
		JWTSecret:       "test-secret",
		AccessTTLMin:    15,
		RefreshTTLDays:  7,
		BcryptCost:      bcrypt.MinCost,
		StaffSignupCode: "letmein",
	}
	h := NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db))
	return mock, h, func() { db.Close() }
}

func authCtx(t *testing.T, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

var userColumns = []string{"id", "username", "email", "password_hash", "is_staff", "created_at", "updated_at"}

func TestRegisterMissingFields(t *testing.T) {
	_, h, done := newAuthHandler(t)
	defer done()

	c, rec := authCtx(t, "/v1/auth/register", `{"username":"", "password":""}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	mock, h, done := newAuthHandler(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("dana", "dana@example.com", sqlmock.AnyArg(), false).
		WillReturnError(errDuplicate)

	c, rec := authCtx(t, "/v1/auth/register",
		`{"username":"Dana","email":"Dana@Example.com","password":"pw1234"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	mock, h, done := newAuthHandler(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("dana", "dana@example.com", sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(uint64(9), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := authCtx(t, "/v1/auth/register",
		`{"username":"dana","email":"dana@example.com","password":"pw1234"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access"`)
	assert.Contains(t, rec.Body.String(), `"refresh"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestRegisterStaffRequiresCode checks that an anonymous caller cannot
// grant themselves the STAFF role just by asking for it.
func TestRegisterStaffRequiresCode(t *testing.T) {
	mock, h, done := newAuthHandler(t)
	defer done()

	c, rec := authCtx(t, "/v1/auth/register",
		`{"username":"mallory","email":"mallory@example.com","password":"pw1234","role":"STAFF"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "staff code")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterStaffWithCode(t *testing.T) {
	mock, h, done := newAuthHandler(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("boss", "boss@example.com", sqlmock.AnyArg(), true).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(uint64(2), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := authCtx(t, "/v1/auth/register",
		`{"username":"boss","email":"boss@example.com","password":"pw1234","role":"STAFF","staff_code":"letmein"}`)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"STAFF"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownUser(t *testing.T) {
	mock, h, done := newAuthHandler(t)
	defer done()

	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	c, rec := authCtx(t, "/v1/auth/login", `{"username":"ghost","password":"pw1234"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	mock, h, done := newAuthHandler(t)
	defer done()

	hash, err := utils.HashPassword("right-password", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("dana").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(9, "dana", "dana@example.com", hash, false, now, now))

	c, rec := authCtx(t, "/v1/auth/login", `{"username":"dana","password":"wrong-password"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginSuccess(t *testing.T) {
	mock, h, done := newAuthHandler(t)
	defer done()

	hash, err := utils.HashPassword("pw1234", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM users WHERE username").
		WithArgs("dana").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(9, "dana", "dana@example.com", hash, true, now, now))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(uint64(9), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := authCtx(t, "/v1/auth/login", `{"username":"dana","password":"pw1234"}`)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"STAFF"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRevokedToken(t *testing.T) {
	mock, h, done := newAuthHandler(t)
	defer done()

	revoked := time.Now().UTC().Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token_hash")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(9, time.Now().UTC().Add(24*time.Hour), revoked))

	c, rec := authCtx(t, "/v1/auth/refresh", `{"refresh_token":"abcdef"}`)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
