package graph

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

//go:embed schema.graphql
var sdl string

// NewSchema parses the polling schema and binds it to resolver.
func NewSchema(resolver *Resolver, maxParallelism int) (*graphql.Schema, error) {
	schema, err := graphql.ParseSchema(sdl, resolver,
		graphql.MaxParallelism(maxParallelism),
		graphql.Logger(panicLogger{log: resolver.log}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	return schema, nil
}

// panicLogger reports resolver panics through zap.
type panicLogger struct {
	log *zap.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.log.Error("graphql resolver panic", zap.Any("panic", value), zap.Stack("stack"))
}
