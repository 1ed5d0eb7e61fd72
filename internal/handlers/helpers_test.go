package handlers

import (
	"net/http"
	"testing"

	"github.com/dimitrije/dfsim-api/internal/middleware"
	"github.com/dimitrije/dfsim-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
)

// protectedRoute mounts h behind the body parser and bearer auth, plus any
// extra middleware, the way the /api/v1 protected group does.
func protectedRoute(method, path string, h drift.HandlerFunc, mw ...drift.HandlerFunc) http.Handler {
	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestJWTService()))
	for _, m := range mw {
		app.Use(m)
	}
	if method == http.MethodGet {
		app.Get(path, h)
	} else {
		app.Post(path, h)
	}
	return app
}

func publicRoute(method, path string, h drift.HandlerFunc) http.Handler {
	app := drift.New()
	app.Use(driftmw.BodyParser())
	if method == http.MethodGet {
		app.Get(path, h)
	} else {
		app.Post(path, h)
	}
	return app
}

func authHeaders(t *testing.T, userID, teamID uuid.UUID) map[string]string {
	t.Helper()
	token := testutil.GenerateTestToken(t, userID, "test@example.com", teamID)
	return map[string]string{"Authorization": testutil.AuthHeader(token)}
}
