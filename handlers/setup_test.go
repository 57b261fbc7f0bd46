package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FrankKleiton/vote-app/graph"
	"github.com/FrankKleiton/vote-app/repository"
	"github.com/FrankKleiton/vote-app/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupTestEnvironment builds a gin engine with the GraphQL and health
// handlers on an in-memory SQLite database.
func SetupTestEnvironment(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.OpenTestDB(t)
	schema, err := graph.NewSchema(graph.NewResolver(repository.NewGormStore(db), zap.NewNop()), 4)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/graphql", NewGraphQLHandler(schema, zap.NewNop()).Serve)

	health := NewHealthHandler(db, nil, nil)
	router.GET("/health", health.HealthCheck)
	router.GET("/status", health.SystemStatus)

	return router, db
}

// postGraphQL sends a GraphQL request body and returns the recorder.
func postGraphQL(t *testing.T, router http.Handler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	switch b := body.(type) {
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/graphql", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}
