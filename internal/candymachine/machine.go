// =============================
// File: internal/candymachine/machine.go
// =============================
package candymachine

import (
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Максимальные размеры полей CandyMachineData, под которые программа
// резервирует место перед hidden section.
const (
	maxNameLength    = 32
	maxSymbolLength  = 10
	maxURILength     = 200
	maxCreatorLimit  = 5
	maxCreatorLength = 32 + 1 + 1

	// HiddenSectionOffset – смещение hidden section (items loaded, config lines).
	HiddenSectionOffset = 8 + // discriminator
		1 + 1 + 6 + // version, token_standard, features
		32 + 32 + 32 + // authority, mint_authority, collection_mint
		8 + // items_redeemed
		8 + // items_available
		4 + maxSymbolLength +
		2 + // seller_fee_basis_points
		8 + // max_supply
		1 + // is_mutable
		4 + maxCreatorLimit*maxCreatorLength +
		1 + 4 + maxNameLength + 4 + 4 + maxURILength + 4 + 1 + // config_line_settings
		1 + 4 + maxNameLength + 4 + maxURILength + 32 // hidden_settings
)

var (
	ErrInvalidDiscriminator  = errors.New("account discriminator mismatch")
	ErrAccountTooShort       = errors.New("account data too short")
	ErrRedeemedExceedsLoaded = errors.New("items redeemed exceeds items loaded")
)

// Machine – неизменяемый снимок аккаунта Candy Machine на момент чтения.
type Machine struct {
	PublicKey      solana.PublicKey
	Authority      solana.PublicKey
	MintAuthority  solana.PublicKey
	CollectionMint solana.PublicKey
	ItemsAvailable uint64
	ItemsLoaded    uint64
	ItemsRedeemed  uint64
}

// ItemsRemaining возвращает число ещё не выкупленных элементов.
func (m Machine) ItemsRemaining() uint64 {
	if m.ItemsRedeemed >= m.ItemsLoaded {
		return 0
	}
	return m.ItemsLoaded - m.ItemsRedeemed
}

type creator struct {
	Address         solana.PublicKey
	Verified        bool
	PercentageShare uint8
}

type configLineSettings struct {
	PrefixName   string
	NameLength   uint32
	PrefixURI    string
	URILength    uint32
	IsSequential bool
}

type hiddenSettings struct {
	Name string
	URI  string
	Hash [32]byte
}

type candyMachineData struct {
	ItemsAvailable       uint64
	Symbol               string
	SellerFeeBasisPoints uint16
	MaxSupply            uint64
	IsMutable            bool
	Creators             []creator
	ConfigLineSettings   *configLineSettings `bin:"optional"`
	HiddenSettings       *hiddenSettings     `bin:"optional"`
}

type candyMachineAccount struct {
	Discriminator  [8]byte
	Version        uint8
	TokenStandard  uint8
	Features       [6]byte
	Authority      solana.PublicKey
	MintAuthority  solana.PublicKey
	CollectionMint solana.PublicKey
	ItemsRedeemed  uint64
	Data           candyMachineData
}

// DecodeMachine разбирает данные аккаунта Candy Machine.
// При hidden settings все элементы считаются загруженными.
func DecodeMachine(address solana.PublicKey, data []byte) (Machine, error) {
	if len(data) < 8 {
		return Machine{}, ErrAccountTooShort
	}

	var acc candyMachineAccount
	if err := bin.NewBorshDecoder(data).Decode(&acc); err != nil {
		return Machine{}, fmt.Errorf("failed to decode candy machine: %w", err)
	}
	if acc.Discriminator != candyMachineDiscriminator {
		return Machine{}, ErrInvalidDiscriminator
	}

	m := Machine{
		PublicKey:      address,
		Authority:      acc.Authority,
		MintAuthority:  acc.MintAuthority,
		CollectionMint: acc.CollectionMint,
		ItemsAvailable: acc.Data.ItemsAvailable,
		ItemsRedeemed:  acc.ItemsRedeemed,
	}

	if acc.Data.HiddenSettings != nil {
		m.ItemsLoaded = acc.Data.ItemsAvailable
	} else {
		if len(data) < HiddenSectionOffset+4 {
			return Machine{}, fmt.Errorf("%w: %d bytes, hidden section at %d",
				ErrAccountTooShort, len(data), HiddenSectionOffset)
		}
		m.ItemsLoaded = uint64(binary.LittleEndian.Uint32(data[HiddenSectionOffset : HiddenSectionOffset+4]))
	}

	if m.ItemsRedeemed > m.ItemsLoaded {
		return Machine{}, fmt.Errorf("%w: redeemed %d, loaded %d",
			ErrRedeemedExceedsLoaded, m.ItemsRedeemed, m.ItemsLoaded)
	}
	return m, nil
}
