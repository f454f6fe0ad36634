package candymachine

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockAccountReader реализует интерфейс AccountReader
type MockAccountReader struct {
	mock.Mock
}

func (m *MockAccountReader) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	args := m.Called(ctx, pubkey)
	res, _ := args.Get(0).(*rpc.GetAccountInfoResult)
	return res, args.Error(1)
}

func (m *MockAccountReader) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	args := m.Called(ctx, pubkey, commitment)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockAccountReader) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.GetTokenAccountBalanceResult, error) {
	args := m.Called(ctx, account)
	res, _ := args.Get(0).(*rpc.GetTokenAccountBalanceResult)
	return res, args.Error(1)
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

// encodeMachine собирает данные аккаунта так, как их хранит программа.
func encodeMachine(t *testing.T, acc candyMachineAccount, itemsLoaded uint32) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, bin.NewBorshEncoder(buf).Encode(&acc))
	data := buf.Bytes()
	require.LessOrEqual(t, len(data), HiddenSectionOffset)

	out := make([]byte, HiddenSectionOffset+4+100)
	copy(out, data)
	binary.LittleEndian.PutUint32(out[HiddenSectionOffset:], itemsLoaded)
	return out
}

func machineAccount(redeemed, available uint64) candyMachineAccount {
	return candyMachineAccount{
		Discriminator:  candyMachineDiscriminator,
		Version:        1,
		Authority:      newKey(),
		MintAuthority:  newKey(),
		CollectionMint: newKey(),
		ItemsRedeemed:  redeemed,
		Data: candyMachineData{
			ItemsAvailable:       available,
			Symbol:               "OGVIP",
			SellerFeeBasisPoints: 500,
			IsMutable:            true,
			Creators:             []creator{{Address: newKey(), Verified: true, PercentageShare: 100}},
			ConfigLineSettings: &configLineSettings{
				PrefixName: "OG #$ID+1$",
				PrefixURI:  "https://arweave.net/",
				URILength:  43,
			},
		},
	}
}

func encodeGuard(t *testing.T, header candyGuardHeader, features uint64, body ...interface{}) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	require.NoError(t, enc.Encode(&header))
	require.NoError(t, enc.WriteUint64(features, bin.LE))
	for _, b := range body {
		switch v := b.(type) {
		case []byte:
			require.NoError(t, enc.WriteBytes(v, false))
		default:
			require.NoError(t, enc.Encode(v))
		}
	}
	return buf.Bytes()
}

func TestHiddenSectionOffset(t *testing.T) {
	assert.Equal(t, 850, HiddenSectionOffset)
}

func TestDecodeMachine(t *testing.T) {
	addr := newKey()
	acc := machineAccount(400, 1000)

	m, err := DecodeMachine(addr, encodeMachine(t, acc, 1000))
	require.NoError(t, err)

	assert.Equal(t, addr, m.PublicKey)
	assert.Equal(t, acc.Authority, m.Authority)
	assert.Equal(t, acc.CollectionMint, m.CollectionMint)
	assert.Equal(t, uint64(1000), m.ItemsLoaded)
	assert.Equal(t, uint64(400), m.ItemsRedeemed)
	assert.Equal(t, uint64(600), m.ItemsRemaining())
}

func TestDecodeMachine_HiddenSettings(t *testing.T) {
	acc := machineAccount(3, 50)
	acc.Data.ConfigLineSettings = nil
	acc.Data.HiddenSettings = &hiddenSettings{Name: "OG", URI: "https://example.org/og.json"}

	m, err := DecodeMachine(newKey(), encodeMachine(t, acc, 0))
	require.NoError(t, err)
	assert.Equal(t, uint64(50), m.ItemsLoaded)
}

func TestDecodeMachine_Invalid(t *testing.T) {
	acc := machineAccount(0, 10)
	acc.Discriminator = [8]byte{1, 2, 3}
	_, err := DecodeMachine(newKey(), encodeMachine(t, acc, 10))
	assert.ErrorIs(t, err, ErrInvalidDiscriminator)

	_, err = DecodeMachine(newKey(), []byte{1, 2})
	assert.ErrorIs(t, err, ErrAccountTooShort)

	over := machineAccount(11, 20)
	_, err = DecodeMachine(newKey(), encodeMachine(t, over, 10))
	assert.ErrorIs(t, err, ErrRedeemedExceedsLoaded)
}

func TestDecodeGuard_SkipsPrecedingGuards(t *testing.T) {
	header := candyGuardHeader{Discriminator: candyGuardDiscriminator, Base: newKey(), Bump: 254, Authority: newKey()}
	tp := TokenPayment{Amount: 250_000_000, Mint: newKey(), DestinationAta: newKey()}
	ml := MintLimit{ID: 7, Limit: 3}

	features := uint64(1<<GuardBotTax | 1<<GuardSolPayment | 1<<GuardTokenPayment | 1<<GuardStartDate | 1<<GuardMintLimit)
	data := encodeGuard(t, header, features,
		make([]byte, guardSizes[GuardBotTax]),
		make([]byte, guardSizes[GuardSolPayment]),
		&tp,
		make([]byte, guardSizes[GuardStartDate]),
		&ml,
	)

	addr := newKey()
	g, err := DecodeGuard(addr, data)
	require.NoError(t, err)
	assert.Equal(t, addr, g.PublicKey)
	assert.Equal(t, header.Authority, g.Authority)

	gotTP, ok := g.Guards.TokenPayment()
	require.True(t, ok)
	assert.Equal(t, tp, gotTP)

	gotML, ok := g.Guards.MintLimit()
	require.True(t, ok)
	assert.Equal(t, ml, gotML)

	assert.True(t, g.Guards.Enabled(GuardStartDate))
	assert.False(t, g.Guards.Enabled(GuardAllowList))
}

func TestDecodeGuard_NoGuards(t *testing.T) {
	header := candyGuardHeader{Discriminator: candyGuardDiscriminator, Base: newKey(), Authority: newKey()}
	g, err := DecodeGuard(newKey(), encodeGuard(t, header, 0))
	require.NoError(t, err)

	_, ok := g.Guards.TokenPayment()
	assert.False(t, ok)
	_, ok = g.Guards.MintLimit()
	assert.False(t, ok)
}

func TestFetcher_Fetch(t *testing.T) {
	ctx := context.Background()
	machineID, guardID := newKey(), newKey()

	header := candyGuardHeader{Discriminator: candyGuardDiscriminator, Base: newKey(), Authority: newKey()}
	ml := MintLimit{ID: 1, Limit: 5}

	reader := new(MockAccountReader)
	reader.On("GetAccountInfo", mock.Anything, machineID).Return(&rpc.GetAccountInfoResult{
		Value: &rpc.Account{
			Owner: CandyMachineProgramID,
			Data:  rpc.DataBytesOrJSONFromBytes(encodeMachine(t, machineAccount(400, 1000), 1000)),
		},
	}, nil)
	reader.On("GetAccountInfo", mock.Anything, guardID).Return(&rpc.GetAccountInfoResult{
		Value: &rpc.Account{
			Owner: CandyGuardProgramID,
			Data:  rpc.DataBytesOrJSONFromBytes(encodeGuard(t, header, 1<<GuardMintLimit, &ml)),
		},
	}, nil)

	f := NewFetcher(reader, zaptest.NewLogger(t))
	m, g, err := f.Fetch(ctx, machineID, guardID)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), m.ItemsRedeemed)

	got, ok := g.Guards.MintLimit()
	require.True(t, ok)
	assert.Equal(t, uint8(1), got.ID)
	reader.AssertExpectations(t)
}

func TestFetcher_FetchPropagatesErrors(t *testing.T) {
	machineID, guardID := newKey(), newKey()
	rpcErr := errors.New("connection refused")

	reader := new(MockAccountReader)
	reader.On("GetAccountInfo", mock.Anything, machineID).Return(nil, rpcErr)
	reader.On("GetAccountInfo", mock.Anything, guardID).Return(&rpc.GetAccountInfoResult{
		Value: &rpc.Account{Owner: solana.SystemProgramID},
	}, nil).Maybe()

	f := NewFetcher(reader, zaptest.NewLogger(t))
	_, _, err := f.Fetch(context.Background(), machineID, guardID)
	require.Error(t, err)
}

func TestFetcher_WrongOwner(t *testing.T) {
	guardID := newKey()
	reader := new(MockAccountReader)
	reader.On("GetAccountInfo", mock.Anything, guardID).Return(&rpc.GetAccountInfoResult{
		Value: &rpc.Account{Owner: solana.SystemProgramID},
	}, nil)

	_, err := NewFetcher(reader, zaptest.NewLogger(t)).FetchGuard(context.Background(), guardID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incorrect owner")
}

func TestFetcher_GetTokenBalance(t *testing.T) {
	owner, mint := newKey(), newKey()
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)

	ui := 12.5
	reader := new(MockAccountReader)
	reader.On("GetTokenAccountBalance", mock.Anything, ata).Return(&rpc.GetTokenAccountBalanceResult{
		Value: &rpc.UiTokenAmount{Amount: "12500000", Decimals: 6, UiAmount: &ui},
	}, nil)

	tb, err := NewFetcher(reader, zaptest.NewLogger(t)).GetTokenBalance(context.Background(), owner, mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(12_500_000), tb.Amount)
	assert.Equal(t, 12.5, tb.UIAmount)
}

func TestFetcher_GetTokenBalance_MissingAccount(t *testing.T) {
	owner, mint := newKey(), newKey()
	reader := new(MockAccountReader)
	reader.On("GetTokenAccountBalance", mock.Anything, mock.Anything).
		Return(nil, errors.New("Invalid param: could not find account"))

	tb, err := NewFetcher(reader, zaptest.NewLogger(t)).GetTokenBalance(context.Background(), owner, mint)
	require.NoError(t, err)
	assert.Zero(t, tb.Amount)
}
