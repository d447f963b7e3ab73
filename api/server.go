package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Server is the HTTP front end of the settlement service
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer builds the router. jwtSecret signs the bearer tokens identifying accounts.
func NewServer(addr string, jwtSecret []byte, services Services) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	h := NewHandler(services)

	router.GET("/healthz", h.Health)
	router.POST("/api/fairness/verify", h.VerifyFairness)

	protected := router.Group("/api")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.POST("/account", h.OpenAccount)
		protected.GET("/account", h.GetAccount)

		games := protected.Group("/games")
		{
			games.GET("", h.ListGames)

			dice := games.Group("/dice")
			{
				dice.POST("/bet", h.PlaceBet)
				dice.GET("/bets", h.ListBets)
				dice.GET("/bets/:id/verify", h.VerifyBet)
				dice.GET("/seed", h.GetSeed)
				dice.POST("/seed/rotate", h.RotateSeed)
				dice.GET("/seeds/revealed", h.ListRevealedSeeds)
			}
		}
	}

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Router returns the underlying handler
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	log.Info("HTTP server stopped")
	return nil
}
