package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seqdex/seqdex/params"
	"github.com/seqdex/seqdex/pkg/book"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	engine := book.NewEngine(params.Protocol{}, nil, nil)
	return NewServer(engine, nil)
}

func doJSON(t *testing.T, s *Server, method, path, principal string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if principal != "" {
		req.Header.Set("X-Principal", principal)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestPlaceOrderEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/api/v1/orders", "SP1ALICE", PlaceOrderRequest{
		Pair: "STX-USDC", Side: "buy", Quantity: 2_000_000, Price: 5_000_000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp PlaceOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.OrderID != 1 {
		t.Errorf("order id = %d, want 1", resp.OrderID)
	}

	w = doJSON(t, s, "GET", "/api/v1/orders/1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get order status = %d", w.Code)
	}
	var info OrderInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Status != "active" || info.Owner != "SP1ALICE" || info.Side != "buy" {
		t.Errorf("order info = %+v", info)
	}
}

func TestPlaceOrderRequiresPrincipal(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, "POST", "/api/v1/orders", "", PlaceOrderRequest{
		Pair: "STX-USDC", Side: "buy", Quantity: 2_000_000, Price: 5_000_000,
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestErrorCodePassthrough(t *testing.T) {
	s := newTestServer(t)

	// undersized order carries the ledger's invalid-order code
	w := doJSON(t, s, "POST", "/api/v1/orders", "SP1ALICE", PlaceOrderRequest{
		Pair: "STX-USDC", Side: "buy", Quantity: 1, Price: 5_000_000,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != book.CodeInvalidOrder {
		t.Errorf("code = %d, want %d", resp.Code, book.CodeInvalidOrder)
	}

	// foreign cancel maps NOT_AUTHORIZED onto 403
	w = doJSON(t, s, "POST", "/api/v1/orders", "SP1ALICE", PlaceOrderRequest{
		Pair: "STX-USDC", Side: "buy", Quantity: 2_000_000, Price: 5_000_000,
	})
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}
	w = doJSON(t, s, "POST", "/api/v1/orders/cancel", "SP3CAROL", CancelOrderRequest{OrderID: 1})
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestTradeAndPriceEndpoints(t *testing.T) {
	s := newTestServer(t)

	// no trade history yet: explicit absence
	w := doJSON(t, s, "GET", "/api/v1/markets/STX-USDC/price", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("price before trades: status = %d, want 404", w.Code)
	}

	doJSON(t, s, "POST", "/api/v1/orders", "SP1ALICE", PlaceOrderRequest{
		Pair: "STX-USDC", Side: "buy", Quantity: 2_000_000, Price: 5_000_000,
	})
	doJSON(t, s, "POST", "/api/v1/orders", "SP2BOB", PlaceOrderRequest{
		Pair: "STX-USDC", Side: "sell", Quantity: 2_000_000, Price: 4_900_000,
	})

	w = doJSON(t, s, "POST", "/api/v1/trades", "", ExecuteTradeRequest{BuyOrderID: 1, SellOrderID: 2})
	if w.Code != http.StatusOK {
		t.Fatalf("trade status = %d, body = %s", w.Code, w.Body.String())
	}
	var trade book.Trade
	if err := json.Unmarshal(w.Body.Bytes(), &trade); err != nil {
		t.Fatal(err)
	}
	if trade.Qty != 2_000_000 || trade.Price != 5_000_000 {
		t.Errorf("trade = %+v", trade)
	}

	w = doJSON(t, s, "GET", "/api/v1/markets/STX-USDC/price", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("price status = %d", w.Code)
	}
	var quote book.PriceQuote
	if err := json.Unmarshal(w.Body.Bytes(), &quote); err != nil {
		t.Fatal(err)
	}
	if quote.Price != 5_000_000 {
		t.Errorf("quote price = %d, want 5000000", quote.Price)
	}

	w = doJSON(t, s, "GET", "/api/v1/markets/STX-USDC/depth", "", nil)
	var depth DepthSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &depth); err != nil {
		t.Fatal(err)
	}
	if len(depth.Levels) != 2 {
		t.Errorf("depth levels = %d, want 2", len(depth.Levels))
	}
}

func TestStatusAndHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/api/v1/status", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", w.Code)
	}
	var st StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if !st.Active || st.NextOrderID != 1 {
		t.Errorf("status = %+v", st)
	}

	w = doJSON(t, s, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health = %d", w.Code)
	}
}

func TestAdminMarketGate(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/api/v1/admin/market", "", SetMarketActiveRequest{Active: false})
	if w.Code != http.StatusOK {
		t.Fatalf("admin status = %d", w.Code)
	}

	w = doJSON(t, s, "POST", "/api/v1/orders", "SP1ALICE", PlaceOrderRequest{
		Pair: "STX-USDC", Side: "buy", Quantity: 2_000_000, Price: 5_000_000,
	})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("closed market status = %d, want 503", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != book.CodeMarketClosed {
		t.Errorf("code = %d, want %d", resp.Code, book.CodeMarketClosed)
	}
}
