package computebudget

import (
	"testing"

	cb "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInstructions_LimitOnly(t *testing.T) {
	ixs, err := BuildInstructions(NewMintConfig())
	require.NoError(t, err)
	require.Len(t, ixs, 1)

	assert.Equal(t, cb.ProgramID, ixs[0].ProgramID())

	data, err := ixs[0].Data()
	require.NoError(t, err)
	// discriminator 2 = SetComputeUnitLimit, затем u32 LE
	assert.Equal(t, []byte{2, 0x00, 0x35, 0x0c, 0x00}, data)
}

func TestBuildInstructions_WithPrice(t *testing.T) {
	ixs, err := BuildInstructions(Config{Units: MintUnits, UnitPrice: 5_000})
	require.NoError(t, err)
	require.Len(t, ixs, 2)

	data, err := ixs[1].Data()
	require.NoError(t, err)
	assert.Equal(t, byte(3), data[0])
}

func TestBuildInstructions_DefaultsAndBounds(t *testing.T) {
	ixs, err := BuildInstructions(Config{})
	require.NoError(t, err)
	require.Len(t, ixs, 1)

	_, err = BuildInstructions(Config{Units: MaxUnits + 1})
	assert.ErrorIs(t, err, ErrUnitsOutOfRange)
}
