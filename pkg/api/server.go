package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/seqdex/seqdex/pkg/book"
)

// Server exposes the matching engine over REST and streams its events over
// websocket. The caller principal arrives in the X-Principal header;
// verifying it is the authentication collaborator's job, not ours.
type Server struct {
	engine *book.Engine
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

func NewServer(engine *book.Engine, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		engine: engine,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Market data
	api.HandleFunc("/markets/{pair}/price", s.handleGetPrice).Methods("GET")
	api.HandleFunc("/markets/{pair}/depth", s.handleGetDepth).Methods("GET")
	api.HandleFunc("/orders/{id:[0-9]+}", s.handleGetOrder).Methods("GET")
	api.HandleFunc("/status", s.handleGetStatus).Methods("GET")

	// Operations
	api.HandleFunc("/orders", s.handlePlaceOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")
	api.HandleFunc("/trades", s.handleExecuteTrade).Methods("POST")
	api.HandleFunc("/liquidity", s.handleProvideLiquidity).Methods("POST")
	api.HandleFunc("/admin/market", s.handleSetMarketActive).Methods("POST")

	// WebSocket event stream
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start starts the API server (blocking).
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Principal"},
	})

	s.log.Infow("api_listening", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler { return s.router }

func principal(r *http.Request) string { return r.Header.Get("X-Principal") }

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	caller := principal(r)
	if caller == "" {
		respondError(w, http.StatusUnauthorized, 0, "missing X-Principal header")
		return
	}

	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, 0, "invalid request body")
		return
	}
	side, ok := book.ParseSide(req.Side)
	if !ok {
		respondError(w, http.StatusBadRequest, book.CodeInvalidOrder, "side must be \"buy\" or \"sell\"")
		return
	}

	id, err := s.engine.PlaceOrder(req.Pair, side, req.Quantity, req.Price, caller)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	if o, ok := s.engine.Order(id); ok {
		s.hub.BroadcastToChannel("orders", WSEvent{Channel: "orders", Type: "placed", Data: orderInfo(o)})
	}
	respondJSON(w, PlaceOrderResponse{OrderID: id})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	caller := principal(r)
	if caller == "" {
		respondError(w, http.StatusUnauthorized, 0, "missing X-Principal header")
		return
	}

	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, 0, "invalid request body")
		return
	}

	if err := s.engine.CancelOrder(req.OrderID, caller); err != nil {
		respondEngineError(w, err)
		return
	}

	if o, ok := s.engine.Order(req.OrderID); ok {
		s.hub.BroadcastToChannel("orders", WSEvent{Channel: "orders", Type: "cancelled", Data: orderInfo(o)})
	}
	respondJSON(w, map[string]bool{"cancelled": true})
}

func (s *Server) handleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req ExecuteTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, 0, "invalid request body")
		return
	}

	trade, err := s.engine.ExecuteTrade(req.BuyOrderID, req.SellOrderID)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	// settlement collaborators consume trade events from this stream
	s.hub.BroadcastToChannel("trades", WSEvent{Channel: "trades", Type: "executed", Data: trade})
	if q, ok := s.engine.CurrentPrice(trade.Pair); ok {
		s.hub.BroadcastToChannel("quotes", WSEvent{Channel: "quotes", Type: "updated", Data: q})
	}
	respondJSON(w, trade)
}

func (s *Server) handleProvideLiquidity(w http.ResponseWriter, r *http.Request) {
	caller := principal(r)
	if caller == "" {
		respondError(w, http.StatusUnauthorized, 0, "missing X-Principal header")
		return
	}

	var req ProvideLiquidityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, 0, "invalid request body")
		return
	}

	summary, err := s.engine.ProvideMarketLiquidity(req.Pair, req.BaseQuantity, req.SpreadBps, req.MaxExposure, caller)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	s.hub.BroadcastToChannel("orders", WSEvent{Channel: "orders", Type: "liquidity", Data: summary})
	respondJSON(w, summary)
}

func (s *Server) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	pair := mux.Vars(r)["pair"]
	quote, ok := s.engine.CurrentPrice(pair)
	if !ok {
		// explicit absence, not a zero-valued quote
		respondError(w, http.StatusNotFound, 0, "no trade history for pair")
		return
	}
	respondJSON(w, quote)
}

func (s *Server) handleGetDepth(w http.ResponseWriter, r *http.Request) {
	pair := mux.Vars(r)["pair"]
	respondJSON(w, DepthSnapshot{
		Pair:   pair,
		Levels: s.engine.Depth(pair),
		Height: s.engine.State().Height,
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, 0, "invalid order id")
		return
	}
	o, ok := s.engine.Order(id)
	if !ok {
		respondError(w, http.StatusNotFound, book.CodeOrderNotFound, "order not found")
		return
	}
	respondJSON(w, orderInfo(o))
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	st := s.engine.State()
	respondJSON(w, StatusResponse{
		Height:      st.Height,
		NextOrderID: st.NextOrderID,
		Active:      st.Active,
		TotalVolume: st.TotalVolume,
	})
}

func (s *Server) handleSetMarketActive(w http.ResponseWriter, r *http.Request) {
	var req SetMarketActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, 0, "invalid request body")
		return
	}
	if err := s.engine.SetMarketActive(req.Active); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"active": req.Active})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code uint32, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Error:   http.StatusText(status),
		Message: message,
	})
}

// respondEngineError maps the ledger's coded errors onto HTTP statuses while
// preserving the numeric code in the body.
func respondEngineError(w http.ResponseWriter, err error) {
	code := book.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case book.CodeNotAuthorized:
		status = http.StatusForbidden
	case book.CodeInsufficientBalance:
		status = http.StatusPaymentRequired
	case book.CodeInvalidOrder, book.CodeInvalidPrice, book.CodeSlippageExceeded:
		status = http.StatusBadRequest
	case book.CodeOrderNotFound:
		status = http.StatusNotFound
	case book.CodeMarketClosed:
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Error:   http.StatusText(status),
		Message: err.Error(),
	})
}
