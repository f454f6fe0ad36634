// =============================
// File: internal/candymachine/guard.go
// =============================
package candymachine

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// GuardKind – позиция guard-а в битовой маске default guard set.
type GuardKind uint8

const (
	GuardBotTax GuardKind = iota
	GuardSolPayment
	GuardTokenPayment
	GuardStartDate
	GuardThirdPartySigner
	GuardTokenGate
	GuardGatekeeper
	GuardEndDate
	GuardAllowList
	GuardMintLimit
)

// guardSizes – сериализованный размер guard-ов, предшествующих mintLimit.
// Все они фиксированной длины, поэтому разбор до mintLimit не требует IDL.
var guardSizes = [...]int{
	GuardBotTax:           8 + 1,
	GuardSolPayment:       8 + 32,
	GuardTokenPayment:     8 + 32 + 32,
	GuardStartDate:        8,
	GuardThirdPartySigner: 32,
	GuardTokenGate:        8 + 32,
	GuardGatekeeper:       32 + 1,
	GuardEndDate:          8,
	GuardAllowList:        32,
	GuardMintLimit:        1 + 2,
}

func (k GuardKind) String() string {
	switch k {
	case GuardBotTax:
		return "botTax"
	case GuardSolPayment:
		return "solPayment"
	case GuardTokenPayment:
		return "tokenPayment"
	case GuardStartDate:
		return "startDate"
	case GuardThirdPartySigner:
		return "thirdPartySigner"
	case GuardTokenGate:
		return "tokenGate"
	case GuardGatekeeper:
		return "gatekeeper"
	case GuardEndDate:
		return "endDate"
	case GuardAllowList:
		return "allowList"
	case GuardMintLimit:
		return "mintLimit"
	}
	return fmt.Sprintf("guard(%d)", uint8(k))
}

// GuardConfig – закрытый набор вариантов конфигурации guard-а.
type GuardConfig interface {
	Kind() GuardKind
	isGuardConfig()
}

// TokenPayment списывает Amount токенов Mint на DestinationAta за каждый минт.
type TokenPayment struct {
	Amount         uint64
	Mint           solana.PublicKey
	DestinationAta solana.PublicKey
}

func (TokenPayment) Kind() GuardKind { return GuardTokenPayment }
func (TokenPayment) isGuardConfig()  {}

// MintLimit ограничивает число минтов на кошелёк счётчиком с идентификатором ID.
type MintLimit struct {
	ID    uint8
	Limit uint16
}

func (MintLimit) Kind() GuardKind { return GuardMintLimit }
func (MintLimit) isGuardConfig()  {}

// GuardSet – набор включённых guard-ов default группы.
type GuardSet struct {
	features uint64
	guards   map[GuardKind]GuardConfig
}

// NewGuardSet собирает набор из конфигураций; повторный вид перезаписывает предыдущий.
func NewGuardSet(configs ...GuardConfig) GuardSet {
	set := GuardSet{guards: make(map[GuardKind]GuardConfig, len(configs))}
	for _, c := range configs {
		set.features |= 1 << c.Kind()
		set.guards[c.Kind()] = c
	}
	return set
}

// Enabled сообщает, включён ли guard в битовой маске аккаунта.
func (s GuardSet) Enabled(kind GuardKind) bool {
	return s.features&(1<<kind) != 0
}

// TokenPayment возвращает guard tokenPayment, если он настроен.
func (s GuardSet) TokenPayment() (TokenPayment, bool) {
	g, ok := s.guards[GuardTokenPayment].(TokenPayment)
	return g, ok
}

// MintLimit возвращает guard mintLimit, если он настроен.
func (s GuardSet) MintLimit() (MintLimit, bool) {
	g, ok := s.guards[GuardMintLimit].(MintLimit)
	return g, ok
}

// Guard – неизменяемый снимок аккаунта Candy Guard.
type Guard struct {
	PublicKey solana.PublicKey
	Base      solana.PublicKey
	Authority solana.PublicKey
	Guards    GuardSet
}

type candyGuardHeader struct {
	Discriminator [8]byte
	Base          solana.PublicKey
	Bump          uint8
	Authority     solana.PublicKey
}

// DecodeGuard разбирает аккаунт Candy Guard: заголовок и default guard set.
// Группы не разбираются.
func DecodeGuard(address solana.PublicKey, data []byte) (Guard, error) {
	dec := bin.NewBorshDecoder(data)

	var header candyGuardHeader
	if err := dec.Decode(&header); err != nil {
		return Guard{}, fmt.Errorf("failed to decode candy guard header: %w", err)
	}
	if header.Discriminator != candyGuardDiscriminator {
		return Guard{}, ErrInvalidDiscriminator
	}

	features, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return Guard{}, fmt.Errorf("failed to read guard features: %w", err)
	}

	set := GuardSet{features: features, guards: make(map[GuardKind]GuardConfig)}
	for kind := GuardBotTax; kind <= GuardMintLimit; kind++ {
		if !set.Enabled(kind) {
			continue
		}
		switch kind {
		case GuardTokenPayment:
			var tp TokenPayment
			if err := dec.Decode(&tp); err != nil {
				return Guard{}, fmt.Errorf("failed to decode %s guard: %w", kind, err)
			}
			set.guards[kind] = tp
		case GuardMintLimit:
			var ml MintLimit
			if err := dec.Decode(&ml); err != nil {
				return Guard{}, fmt.Errorf("failed to decode %s guard: %w", kind, err)
			}
			set.guards[kind] = ml
		default:
			if _, err := dec.ReadNBytes(guardSizes[kind]); err != nil {
				return Guard{}, fmt.Errorf("failed to skip %s guard: %w", kind, err)
			}
		}
	}

	return Guard{
		PublicKey: address,
		Base:      header.Base,
		Authority: header.Authority,
		Guards:    set,
	}, nil
}
