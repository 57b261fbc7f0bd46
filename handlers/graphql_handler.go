package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"go.uber.org/zap"
)

// GraphQLRequest is the body of a GraphQL-over-HTTP POST.
type GraphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// GraphQLHandler executes GraphQL requests against a schema.
type GraphQLHandler struct {
	schema *graphql.Schema
	log    *zap.Logger
}

// NewGraphQLHandler creates a handler for schema.
func NewGraphQLHandler(schema *graphql.Schema, log *zap.Logger) *GraphQLHandler {
	return &GraphQLHandler{schema: schema, log: log.Named("graphql")}
}

// Serve executes the request body. Execution errors are reported in the
// response's errors array with status 200; only an unreadable body is a 400.
func (h *GraphQLHandler) Serve(c *gin.Context) {
	var req GraphQLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("invalid graphql request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": []*gqlerrors.QueryError{gqlerrors.Errorf("invalid request body: %s", err)},
		})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": []*gqlerrors.QueryError{gqlerrors.Errorf("missing query")},
		})
		return
	}

	resp := h.schema.Exec(c.Request.Context(), req.Query, req.OperationName, req.Variables)
	if len(resp.Errors) > 0 {
		h.log.Debug("graphql request returned errors",
			zap.String("operation", req.OperationName),
			zap.Int("errors", len(resp.Errors)))
	}
	c.JSON(http.StatusOK, resp)
}
