package api

import (
	"net/http"
	"strconv"
	"strings"

	"fairdice/fairness"
	"fairdice/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Services bundles the operations exposed over HTTP
type Services struct {
	Accounts     service.AccountService
	Games        service.GameService
	Wagers       service.WagerService
	Seeds        service.SeedService
	Verification service.VerificationService
}

// Handler serves the HTTP routes
type Handler struct {
	services Services
}

// NewHandler creates a new handler
func NewHandler(services Services) *Handler {
	return &Handler{services: services}
}

// BetRequest is the body of POST /api/games/dice/bet
type BetRequest struct {
	WinChance *decimal.Decimal `json:"win_chance" binding:"required"`
	Amount    *decimal.Decimal `json:"amount" binding:"required"`
}

// RotateSeedRequest is the body of POST /api/games/dice/seed/rotate
type RotateSeedRequest struct {
	NewClientSeed *string `json:"new_client_seed"`
}

// VerifyRequest is the body of POST /api/fairness/verify
type VerifyRequest struct {
	ServerSeed     string `json:"server_seed" binding:"required"`
	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed" binding:"required"`
	Nonce          *int64 `json:"nonce" binding:"required"`
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// OpenAccount opens the caller's account with the starting balance
func (h *Handler) OpenAccount(c *gin.Context) {
	account, err := h.services.Accounts.OpenAccount(c.Request.Context(), accountIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// GetAccount returns the caller's balance
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.services.Accounts.GetAccount(c.Request.Context(), accountIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// ListGames returns the game catalogue
func (h *Handler) ListGames(c *gin.Context) {
	games, err := h.services.Games.ListGames(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

// PlaceBet settles a dice wager
func (h *Handler) PlaceBet(c *gin.Context) {
	var req BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "win_chance and amount are required numbers")
		return
	}

	outcome, err := h.services.Wagers.PlaceWager(c.Request.Context(), accountIDFrom(c), *req.WinChance, *req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// GetSeed returns the commitment and public state of the active pair
func (h *Handler) GetSeed(c *gin.Context) {
	info, err := h.services.Seeds.PeekActive(c.Request.Context(), accountIDFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// RotateSeed reveals the active secret and starts a new pair
func (h *Handler) RotateSeed(c *gin.Context) {
	var req RotateSeedRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	rotation, err := h.services.Seeds.Rotate(c.Request.Context(), accountIDFrom(c), req.NewClientSeed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rotation)
}

// ListRevealedSeeds returns retired pairs with their secrets
func (h *Handler) ListRevealedSeeds(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	seeds, err := h.services.Seeds.ListRevealed(c.Request.Context(), accountIDFrom(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seeds)
}

// ListBets returns the caller's wager history
func (h *Handler) ListBets(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	wagers, err := h.services.Wagers.ListWagers(c.Request.Context(), accountIDFrom(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wagers)
}

// VerifyBet replays one of the caller's wagers against its revealed pair
func (h *Handler) VerifyBet(c *gin.Context) {
	betID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "bet id must be a UUID")
		return
	}

	verification, err := h.services.Verification.VerifyWager(c.Request.Context(), accountIDFrom(c), betID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verification)
}

// VerifyFairness recomputes an outcome from caller-supplied seeds
func (h *Handler) VerifyFairness(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "server_seed, client_seed and nonce are required")
		return
	}
	if *req.Nonce < 0 {
		respondBadRequest(c, "nonce cannot be negative")
		return
	}

	verification := fairness.Verify(strings.TrimSpace(req.ServerSeed), strings.TrimSpace(req.ServerSeedHash), req.ClientSeed, *req.Nonce)
	c.JSON(http.StatusOK, verification)
}

func limitParam(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		respondBadRequest(c, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}
