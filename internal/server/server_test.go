package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/trustfreeze/backend/internal/api/middleware"
	"github.com/trustfreeze/backend/internal/api/routes"
	"github.com/trustfreeze/backend/internal/config"
	"github.com/trustfreeze/backend/internal/ledger"
	"github.com/trustfreeze/backend/internal/models"
	"github.com/trustfreeze/backend/internal/services"
)

func testDeps(t *testing.T) routes.Deps {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.FreezeAuditLog{}))
	return routes.Deps{
		DB:     db,
		Freeze: services.NewFreezeService(ledger.NewHorizonClient("http://127.0.0.1:1", time.Second), services.NewGormFreezeAuditStore(db)),
	}
}

func TestNew(t *testing.T) {
	srv, err := New(config.Config{Environment: "production", HTTPPort: "0"}, testDeps(t))
	require.NoError(t, err)
	require.NotNil(t, srv.Engine)

	w := httptest.NewRecorder()
	srv.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	srv.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "route not found")
}

func TestNew_MissingDeps(t *testing.T) {
	_, err := New(config.Config{Environment: "production"}, routes.Deps{})
	assert.Error(t, err)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	srv, err := New(config.Config{Environment: "production", HTTPPort: strconv.Itoa(port)}, testDeps(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/api/v1/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
