package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/FrankKleiton/vote-app/config"
	"github.com/FrankKleiton/vote-app/handlers"
	"github.com/FrankKleiton/vote-app/websocket"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Server 封装HTTP服务器
type Server struct {
	*http.Server
}

// Deps 路由挂载的处理器
type Deps struct {
	Config        *config.Config
	GraphQL       *handlers.GraphQLHandler
	Health        *handlers.HealthHandler
	Subscriptions *websocket.Handler
	Log           *zap.Logger
}

// SetupRouter 配置路由和中间件
func SetupRouter(deps Deps) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(RequestID(), AccessLog(deps.Log), Recovery(deps.Log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	gql := deps.Config.GraphQL
	router.POST(gql.Path, deps.GraphQL.Serve)
	router.GET(gql.PlaygroundPath, gin.WrapF(playground.Handler("vote-app", gql.Path)))
	deps.Subscriptions.RegisterRoutes(router, gql.SubscriptionsPath)

	router.GET("/health", deps.Health.HealthCheck)
	router.GET("/status", deps.Health.SystemStatus)

	return router
}

// StartServer 在单独的goroutine中启动服务器
func StartServer(router *gin.Engine, port string, log *zap.Logger) *Server {
	srv := &Server{
		Server: &http.Server{
			Addr:              ":" + port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	go func() {
		log.Info("server is running", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	return srv
}

// Stop 停止接收新请求并等待进行中的请求完成
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}
