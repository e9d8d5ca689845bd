package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/velora-shop/velora/internal/models"
	"github.com/velora-shop/velora/internal/mykafka"
	"github.com/velora-shop/velora/internal/service/order"
	"github.com/velora-shop/velora/internal/service/search"
	"github.com/velora-shop/velora/internal/service/token"
)

type testEnv struct {
	E  *echo.Echo
	DB *gorm.DB
	A  *AuthHandler
	P  *ProductHandler
	O  *OrderHandler
	U  *UserHandler
}

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Product{}, &models.User{}, &models.RefreshToken{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := InitTestDB(t)

	tokens := &token.Service{DB: db, JWTSecret: []byte("test-secret"), RefreshSecret: []byte("test-refresh-secret")}
	producer := &mykafka.Producer{}
	searchSvc := &search.Service{Index: "products"}

	return &testEnv{
		E:  echo.New(),
		DB: db,
		A:  &AuthHandler{DB: db, Tokens: tokens, Producer: producer},
		P:  &ProductHandler{DB: db, Producer: producer, Search: searchSvc},
		O:  &OrderHandler{Service: &order.Service{DB: db}, Producer: producer},
		U:  &UserHandler{DB: db},
	}
}

func (env *testEnv) doJSONRequest(t *testing.T, method, target string, body any) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func asUser(c echo.Context, userID uint) {
	c.Set("userID", userID)
	c.Set("role", models.RoleUser)
}

func asAdmin(c echo.Context, userID uint) {
	c.Set("userID", userID)
	c.Set("role", models.RoleAdmin)
}

func httpErrorCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	return he.Code
}
