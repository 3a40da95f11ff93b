// Package server exposes the settlement engine over HTTP and streams its
// events over WebSocket. Every mutating endpoint funnels through the host so
// calls keep the one-at-a-time execution model the engine assumes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dicehouse/dicehouse-server/internal/chain"
	"github.com/dicehouse/dicehouse-server/internal/engine"
	"github.com/dicehouse/dicehouse-server/internal/token"
)

// Server wires the engine, the host, and the event hub behind one listener.
type Server struct {
	logger *zap.Logger
	host   *chain.Host
	engine *engine.Engine
	hub    *Hub

	httpServer *http.Server
}

// New builds a server listening on addr.
func New(addr string, host *chain.Host, eng *engine.Engine, hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		logger: logger,
		host:   host,
		engine: eng,
		hub:    hub,
	}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the routed handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/play", s.handlePlay)
	mux.HandleFunc("POST /v1/deposit", s.handleDeposit)
	mux.HandleFunc("POST /v1/admin/withdraw", s.handleWithdraw)
	mux.HandleFunc("POST /v1/admin/sweep", s.handleSweep)
	mux.HandleFunc("POST /v1/admin/pause", s.handlePause)
	mux.HandleFunc("POST /v1/admin/owner", s.handleTransferOwnership)

	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /v1/pool", s.handlePool)
	mux.HandleFunc("GET /v1/cooldown", s.handleCooldown)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.hub.HandleWS)
	}

	return s.withRequestLog(mux)
}

// ListenAndServe blocks serving requests until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("address", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
	})
}

type playRequest struct {
	Player string `json:"player"`
	Number uint64 `json:"number"`
}

type playResponse struct {
	TxID         string `json:"tx_id"`
	Player       string `json:"player"`
	ChosenNumber uint64 `json:"chosen_number"`
	RolledNumber uint64 `json:"rolled_number"`
	Won          bool   `json:"won"`
	Prize        int64  `json:"prize"`
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Player == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("player is required"))
		return
	}

	var (
		outcome *engine.PlayOutcome
		txID    string
	)
	err := s.host.Exec(chain.Address(req.Player), func(env chain.Env) error {
		txID = env.TxID
		var playErr error
		outcome, playErr = s.engine.Play(r.Context(), env, req.Number)
		return playErr
	})
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, playResponse{
		TxID:         txID,
		Player:       outcome.Player.String(),
		ChosenNumber: outcome.ChosenNumber,
		RolledNumber: outcome.RolledNumber,
		Won:          outcome.Won,
		Prize:        outcome.Prize,
	})
}

type depositRequest struct {
	Depositor string `json:"depositor"`
	Amount    int64  `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Depositor == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("depositor is required"))
		return
	}
	s.execAck(w, r, chain.Address(req.Depositor), func(ctx context.Context, env chain.Env) error {
		return s.engine.Deposit(ctx, env, req.Amount)
	})
}

type withdrawRequest struct {
	Caller string `json:"caller"`
	Amount int64  `json:"amount"`
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Caller == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("caller is required"))
		return
	}
	s.execAck(w, r, chain.Address(req.Caller), func(ctx context.Context, env chain.Env) error {
		return s.engine.Withdraw(ctx, env, req.Amount)
	})
}

type sweepRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Caller == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("caller is required"))
		return
	}
	s.execAck(w, r, chain.Address(req.Caller), func(ctx context.Context, env chain.Env) error {
		return s.engine.EmergencyWithdraw(ctx, env)
	})
}

type pauseRequest struct {
	Caller string `json:"caller"`
	Paused bool   `json:"paused"`
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Caller == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("caller is required"))
		return
	}
	s.execAck(w, r, chain.Address(req.Caller), func(ctx context.Context, env chain.Env) error {
		return s.engine.SetPaused(ctx, env, req.Paused)
	})
}

type transferOwnershipRequest struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"new_owner"`
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req transferOwnershipRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Caller == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("caller is required"))
		return
	}
	s.execAck(w, r, chain.Address(req.Caller), func(ctx context.Context, env chain.Env) error {
		return s.engine.TransferOwnership(ctx, env, chain.Address(req.NewOwner))
	})
}

type statsResponse struct {
	TotalGames     uint64 `json:"total_games"`
	TotalWins      uint64 `json:"total_wins"`
	WinRatePercent uint64 `json:"win_rate_percent"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.GameStats()
	s.writeJSON(w, http.StatusOK, statsResponse{
		TotalGames:     stats.TotalGames,
		TotalWins:      stats.TotalWins,
		WinRatePercent: stats.WinRatePercent,
	})
}

type poolResponse struct {
	Balance         int64  `json:"balance"`
	AvailablePrizes int64  `json:"available_prizes"`
	PrizeAmount     int64  `json:"prize_amount"`
	MaxPrizePool    int64  `json:"max_prize_pool"`
	Paused          bool   `json:"paused"`
	Owner           string `json:"owner"`
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	balance, err := s.engine.ContractBalance(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	available, err := s.engine.AvailablePrizes(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	params := s.engine.Params()
	s.writeJSON(w, http.StatusOK, poolResponse{
		Balance:         balance,
		AvailablePrizes: available,
		PrizeAmount:     params.PrizeAmount,
		MaxPrizePool:    params.MaxPrizePool,
		Paused:          s.engine.Paused(),
		Owner:           s.engine.Owner().String(),
	})
}

type cooldownResponse struct {
	Player           string `json:"player"`
	SecondsRemaining int64  `json:"seconds_remaining"`
}

func (s *Server) handleCooldown(w http.ResponseWriter, r *http.Request) {
	player := r.URL.Query().Get("player")
	if player == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("player query parameter is required"))
		return
	}
	remaining := s.engine.CooldownRemaining(chain.Address(player))
	s.writeJSON(w, http.StatusOK, cooldownResponse{
		Player:           player,
		SecondsRemaining: int64(remaining.Seconds()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ackResponse struct {
	TxID string `json:"tx_id"`
}

// execAck runs a mutating call through the host and answers with the tx id
// on success.
func (s *Server) execAck(w http.ResponseWriter, r *http.Request, caller chain.Address, fn func(context.Context, chain.Env) error) {
	var txID string
	err := s.host.Exec(caller, func(env chain.Env) error {
		txID = env.TxID
		return fn(r.Context(), env)
	})
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, ackResponse{TxID: txID})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("malformed request body"))
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}

// statusFor maps engine refusals onto HTTP statuses: validation failures are
// 400, authorization failures 403, state preconditions 409, everything else
// a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidNumber),
		errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrInvalidOwner),
		errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, token.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrGamePaused),
		errors.Is(err, engine.ErrCooldownActive),
		errors.Is(err, engine.ErrInsufficientPrizePool),
		errors.Is(err, engine.ErrPoolCapExceeded),
		errors.Is(err, engine.ErrInsufficientFunds),
		errors.Is(err, engine.ErrReentrantCall),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
