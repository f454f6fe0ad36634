package httpapi

import (
	"github.com/rovshanmuradov/candy-minter/internal/candymachine"
	"github.com/rovshanmuradov/candy-minter/internal/mint"
)

// InfoResponse – сводка кэнди-машины.
type InfoResponse struct {
	CandyMachine   string  `json:"candyMachine"`
	ItemsAvailable uint64  `json:"itemsAvailable"`
	ItemsRedeemed  uint64  `json:"itemsRedeemed"`
	ItemsRemaining uint64  `json:"itemsRemaining"`
	Price          float64 `json:"price"`
}

// BalanceResponse – балансы кошелька.
type BalanceResponse struct {
	Wallet        string  `json:"wallet"`
	Lamports      uint64  `json:"lamports"`
	TokenAccount  string  `json:"tokenAccount,omitempty"`
	TokenAmount   uint64  `json:"tokenAmount"`
	TokenUIAmount float64 `json:"tokenUiAmount"`
}

// QuoteResponse – оценка стоимости батча.
type QuoteResponse struct {
	Count       int     `json:"count"`
	TokenAmount uint64  `json:"tokenAmount"`
	Tokens      float64 `json:"tokens"`
	FeeReserve  uint64  `json:"feeReserveLamports"`
}

// MintRequest – тело POST /api/v1/mint. Пустое тело означает один минт.
type MintRequest struct {
	Count int `json:"count"`
}

// AttemptResponse – исход одной попытки.
type AttemptResponse struct {
	Success     bool   `json:"success"`
	Signature   string `json:"signature,omitempty"`
	MintedAsset string `json:"mintedAsset,omitempty"`
	Error       string `json:"error,omitempty"`
	DurationMs  int64  `json:"durationMs"`
}

// MintResponse – итог батча.
type MintResponse struct {
	TotalRequested int               `json:"totalRequested"`
	TotalMinted    int               `json:"totalMinted"`
	Success        bool              `json:"success"`
	Aborted        bool              `json:"aborted"`
	Attempts       []AttemptResponse `json:"attempts"`
	Errors         []string          `json:"errors"`
}

func toInfoResponse(info mint.Info) InfoResponse {
	return InfoResponse{
		CandyMachine:   info.CandyMachine.String(),
		ItemsAvailable: info.ItemsAvailable,
		ItemsRedeemed:  info.ItemsRedeemed,
		ItemsRemaining: info.ItemsRemaining,
		Price:          info.Price,
	}
}

func toAttemptResponse(a mint.AttemptResult) AttemptResponse {
	resp := AttemptResponse{
		Success:    a.Success,
		Signature:  a.Signature,
		Error:      a.ErrorMessage,
		DurationMs: a.Duration.Milliseconds(),
	}
	if a.Success {
		resp.MintedAsset = a.MintedAsset.String()
	}
	return resp
}

func toMintResponse(r mint.BatchResult) MintResponse {
	attempts := make([]AttemptResponse, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		attempts = append(attempts, toAttemptResponse(a))
	}
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return MintResponse{
		TotalRequested: r.TotalRequested,
		TotalMinted:    r.TotalMinted,
		Success:        r.Success(),
		Aborted:        r.Aborted,
		Attempts:       attempts,
		Errors:         errs,
	}
}

func toBalanceResponse(wallet string, lamports uint64, tb candymachine.TokenBalance) BalanceResponse {
	resp := BalanceResponse{
		Wallet:        wallet,
		Lamports:      lamports,
		TokenAmount:   tb.Amount,
		TokenUIAmount: tb.UIAmount,
	}
	if !tb.Account.IsZero() {
		resp.TokenAccount = tb.Account.String()
	}
	return resp
}
