package solbc

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrNoEndpoints)

	c, err := NewClient([]string{"https://api.devnet.solana.com", "https://backup.example"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "https://api.devnet.solana.com", c.Endpoint())
}

func TestReachedCommitment(t *testing.T) {
	tests := []struct {
		actual rpc.ConfirmationStatusType
		want   rpc.CommitmentType
		ok     bool
	}{
		{rpc.ConfirmationStatusProcessed, rpc.CommitmentProcessed, true},
		{rpc.ConfirmationStatusProcessed, rpc.CommitmentConfirmed, false},
		{rpc.ConfirmationStatusConfirmed, rpc.CommitmentConfirmed, true},
		{rpc.ConfirmationStatusConfirmed, rpc.CommitmentFinalized, false},
		{rpc.ConfirmationStatusFinalized, rpc.CommitmentFinalized, true},
		{rpc.ConfirmationStatusFinalized, rpc.CommitmentConfirmed, true},
		{"", rpc.CommitmentConfirmed, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, reachedCommitment(tt.actual, tt.want),
			"%s vs %s", tt.actual, tt.want)
	}
}

func TestErrors(t *testing.T) {
	err := &RPCError{Method: "getBalance", Endpoint: "http://node", Err: ErrAccountNotFound}
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.True(t, IsAccountNotFoundError(err))
	assert.False(t, IsAccountNotFoundError(errors.New("rate limited")))
	assert.False(t, IsAccountNotFoundError(nil))

	failed := &TransactionFailedError{Signature: "abc", Reason: map[string]interface{}{"InstructionError": []interface{}{1, "Custom"}}}
	assert.Contains(t, failed.Error(), "abc")
}
