package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/candy-minter/internal/mint"
)

func (s *Server) getInfo(c *gin.Context) {
	info, ok := s.service.Info()
	if !ok {
		Error(c, http.StatusServiceUnavailable, "candy machine state not initialized")
		return
	}
	Success(c, toInfoResponse(info))
}

func (s *Server) refresh(c *gin.Context) {
	if err := s.service.Initialize(c.Request.Context()); err != nil {
		s.writeError(c, err)
		return
	}
	info, _ := s.service.Info()
	Success(c, toInfoResponse(info))
}

func (s *Server) getBalance(c *gin.Context) {
	ctx := c.Request.Context()
	lamports, err := s.service.Balance(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}
	tb, err := s.service.PaymentTokenBalance(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}
	Success(c, toBalanceResponse(s.service.Session().PublicKey().String(), lamports, tb))
}

func (s *Server) getQuote(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "1"))
	if err != nil {
		BadRequest(c, "count must be an integer")
		return
	}
	if err := s.checkCount(count); err != nil {
		s.writeError(c, err)
		return
	}
	q, err := s.service.Quote(count)
	if err != nil {
		s.writeError(c, err)
		return
	}
	Success(c, QuoteResponse{
		Count:       q.Count,
		TokenAmount: q.TokenAmount,
		Tokens:      q.Tokens,
		FeeReserve:  q.FeeReserve,
	})
}

func (s *Server) postMint(c *gin.Context) {
	req := MintRequest{Count: 1}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := s.checkCount(req.Count); err != nil {
		s.writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	s.logger.Info("Mint requested over HTTP", zap.Int("count", req.Count))

	if req.Count == 1 {
		attempt, err := s.service.MintSingle(ctx)
		if err != nil {
			s.writeError(c, err)
			return
		}
		batch := mint.BatchResult{TotalRequested: 1, Attempts: []mint.AttemptResult{attempt}}
		if attempt.Success {
			batch.TotalMinted = 1
		} else {
			batch.Errors = []string{fmt.Sprintf("Mint 1 failed: %s", attempt.ErrorMessage)}
		}
		Success(c, toMintResponse(batch))
		return
	}

	result, err := s.service.Mint(ctx, req.Count)
	if err != nil {
		// Отмена посреди батча: частичный результат тоже нужен клиенту.
		if errors.Is(err, ctx.Err()) && len(result.Attempts) > 0 {
			Success(c, toMintResponse(result))
			return
		}
		s.writeError(c, err)
		return
	}
	Success(c, toMintResponse(result))
}

func (s *Server) checkCount(count int) error {
	if count < 1 {
		return fmt.Errorf("%w: got %d", mint.ErrInvalidCount, count)
	}
	if s.opts.MaxBatchSize > 0 && count > s.opts.MaxBatchSize {
		return fmt.Errorf("%w: %d exceeds max batch size %d", mint.ErrInvalidCount, count, s.opts.MaxBatchSize)
	}
	return nil
}

// writeError переводит ошибки фасада в HTTP статусы.
func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	Error(c, status, err.Error())
}

func statusFor(err error) int {
	var (
		notInit *mint.NotInitializedError
		funds   *mint.InsufficientFundsError
		fetch   *mint.ChainFetchError
	)
	switch {
	case errors.Is(err, mint.ErrInvalidCount):
		return http.StatusBadRequest
	case errors.Is(err, mint.ErrMintInProgress):
		return http.StatusConflict
	case errors.Is(err, mint.ErrWalletNotConnected):
		return http.StatusPreconditionFailed
	case errors.As(err, &funds):
		return http.StatusPaymentRequired
	case errors.As(err, &notInit):
		return http.StatusServiceUnavailable
	case errors.As(err, &fetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
