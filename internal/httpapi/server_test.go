package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/candy-minter/internal/candymachine"
	"github.com/rovshanmuradov/candy-minter/internal/metrics"
	"github.com/rovshanmuradov/candy-minter/internal/mint"
	"github.com/rovshanmuradov/candy-minter/internal/wallet"
)

type MockService struct {
	mock.Mock
	session wallet.Session
}

func (m *MockService) Initialize(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockService) Info() (mint.Info, bool) {
	args := m.Called()
	return args.Get(0).(mint.Info), args.Bool(1)
}

func (m *MockService) Quote(n int) (mint.Quote, error) {
	args := m.Called(n)
	return args.Get(0).(mint.Quote), args.Error(1)
}

func (m *MockService) Balance(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockService) PaymentTokenBalance(ctx context.Context) (candymachine.TokenBalance, error) {
	args := m.Called(ctx)
	return args.Get(0).(candymachine.TokenBalance), args.Error(1)
}

func (m *MockService) Mint(ctx context.Context, n int) (mint.BatchResult, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(mint.BatchResult), args.Error(1)
}

func (m *MockService) MintSingle(ctx context.Context) (mint.AttemptResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(mint.AttemptResult), args.Error(1)
}

func (m *MockService) Session() wallet.Session {
	return m.session
}

func newTestServer(t *testing.T, svc *MockService) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s := NewServer(svc, Options{
		MaxBatchSize: 10,
		Gatherer:     reg,
		Metrics:      metrics.NewHTTPMetrics(reg),
	}, zaptest.NewLogger(t))
	return s, reg
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, strings.NewReader(""))
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, &MockService{})

	rec, _ := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "candy_minter_http_requests_total")
}

func TestGetInfo(t *testing.T) {
	svc := &MockService{}
	svc.On("Info").Return(mint.Info{
		CandyMachine:   candymachine.CandyMachineProgramID,
		ItemsAvailable: 1000,
		ItemsRedeemed:  400,
		ItemsRemaining: 600,
		Price:          250,
	}, true).Once()
	svc.On("Info").Return(mint.Info{}, false).Once()
	s, _ := newTestServer(t, svc)

	rec, resp := do(t, s, http.MethodGet, "/api/v1/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, 600.0, data["itemsRemaining"])
	assert.Equal(t, 250.0, data["price"])

	rec, resp = do(t, s, http.MethodGet, "/api/v1/info", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, resp.Success)
}

func TestPostMint_Batch(t *testing.T) {
	asset := solana.NewWallet().PublicKey()
	svc := &MockService{}
	svc.On("Mint", mock.Anything, 2).Return(mint.BatchResult{
		TotalRequested: 2,
		TotalMinted:    1,
		Attempts: []mint.AttemptResult{
			{Success: true, Signature: "sig1", MintedAsset: asset, Duration: time.Second},
			{Success: false, ErrorMessage: "blockhash not found"},
		},
		Errors: []string{"Mint 2 failed: blockhash not found"},
	}, nil).Once()
	s, _ := newTestServer(t, svc)

	rec, resp := do(t, s, http.MethodPost, "/api/v1/mint", `{"count":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, 1.0, data["totalMinted"])
	assert.Equal(t, true, data["success"])
	attempts := data["attempts"].([]interface{})
	require.Len(t, attempts, 2)
	assert.Equal(t, asset.String(), attempts[0].(map[string]interface{})["mintedAsset"])
	assert.Equal(t, "blockhash not found", attempts[1].(map[string]interface{})["error"])
	svc.AssertExpectations(t)
}

func TestPostMint_EmptyBodyIsSingleMint(t *testing.T) {
	svc := &MockService{}
	svc.On("MintSingle", mock.Anything).Return(mint.AttemptResult{ErrorMessage: "user rejected the request"}, nil).Once()
	s, _ := newTestServer(t, svc)

	rec, resp := do(t, s, http.MethodPost, "/api/v1/mint", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["success"])
	assert.Equal(t, []interface{}{"Mint 1 failed: user rejected the request"}, data["errors"])
	svc.AssertNotCalled(t, "Mint", mock.Anything, mock.Anything)
}

func TestPostMint_Validation(t *testing.T) {
	s, _ := newTestServer(t, &MockService{})

	for _, body := range []string{`{"count":0}`, `{"count":11}`, `{"count":"two"}`} {
		rec, resp := do(t, s, http.MethodPost, "/api/v1/mint", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.False(t, resp.Success)
	}
}

func TestPostMint_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"in progress", mint.ErrMintInProgress, http.StatusConflict},
		{"funds", &mint.InsufficientFundsError{Observed: 5, Required: 20_000_000}, http.StatusPaymentRequired},
		{"not initialized", &mint.NotInitializedError{Op: "mint"}, http.StatusServiceUnavailable},
		{"wallet", mint.ErrWalletNotConnected, http.StatusPreconditionFailed},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockService{}
			svc.On("Mint", mock.Anything, 3).Return(mint.BatchResult{}, tt.err).Once()
			s, _ := newTestServer(t, svc)

			rec, resp := do(t, s, http.MethodPost, "/api/v1/mint", `{"count":3}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.err.Error(), resp.Error)
		})
	}
}

func TestGetBalance(t *testing.T) {
	w := solana.NewWallet()
	sess, err := wallet.NewWallet(w.PrivateKey.String())
	require.NoError(t, err)

	svc := &MockService{session: sess}
	svc.On("Balance", mock.Anything).Return(uint64(1_500_000_000), nil)
	svc.On("PaymentTokenBalance", mock.Anything).Return(candymachine.TokenBalance{Amount: 750_000_000, UIAmount: 750}, nil)
	s, _ := newTestServer(t, svc)

	rec, resp := do(t, s, http.MethodGet, "/api/v1/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, w.PublicKey().String(), data["wallet"])
	assert.Equal(t, 1.5e9, data["lamports"])
	assert.Equal(t, 750.0, data["tokenUiAmount"])
	_, hasAccount := data["tokenAccount"]
	assert.False(t, hasAccount)
}

func TestGetQuote(t *testing.T) {
	svc := &MockService{}
	svc.On("Quote", 4).Return(mint.Quote{Count: 4, TokenAmount: 1_000_000_000, Tokens: 1000, FeeReserve: 40_000_000}, nil)
	s, _ := newTestServer(t, svc)

	rec, resp := do(t, s, http.MethodGet, "/api/v1/quote?count=4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1000.0, resp.Data.(map[string]interface{})["tokens"])

	rec, _ = do(t, s, http.MethodGet, "/api/v1/quote?count=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefresh_FetchError(t *testing.T) {
	svc := &MockService{}
	svc.On("Initialize", mock.Anything).Return(&mint.ChainFetchError{Err: errors.New("rpc down")})
	s, _ := newTestServer(t, svc)

	rec, _ := do(t, s, http.MethodPost, "/api/v1/refresh", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
