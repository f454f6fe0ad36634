// internal/blockchain/computebudget/computebudget.go
package computebudget

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	cb "github.com/gagliardetto/solana-go/programs/compute-budget"
)

// Предопределенные профили
const (
	DefaultUnits uint32 = 200_000
	// MintUnits покрывает mint_v2 с guard-ами tokenPayment и mintLimit.
	MintUnits uint32 = 800_000
	// MaxUnits – лимит рантайма на одну транзакцию.
	MaxUnits uint32 = 1_400_000
)

var ErrUnitsOutOfRange = errors.New("compute units out of range")

// Config содержит конфигурацию compute budget для транзакции
type Config struct {
	Units uint32
	// UnitPrice в микролампортах за compute unit; 0 – инструкция цены не добавляется.
	UnitPrice uint64
}

// NewMintConfig создает конфигурацию для mint-транзакции
func NewMintConfig() Config {
	return Config{Units: MintUnits}
}

// Validate проверяет, что лимит лежит в допустимых границах.
func (c Config) Validate() error {
	if c.Units == 0 || c.Units > MaxUnits {
		return ErrUnitsOutOfRange
	}
	return nil
}

// BuildInstructions создает инструкции для настройки бюджета.
// Инструкция лимита всегда первая.
func BuildInstructions(config Config) ([]solana.Instruction, error) {
	if config.Units == 0 {
		config.Units = DefaultUnits
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	instructions := []solana.Instruction{
		cb.NewSetComputeUnitLimitInstruction(config.Units).Build(),
	}
	if config.UnitPrice > 0 {
		instructions = append(instructions,
			cb.NewSetComputeUnitPriceInstruction(config.UnitPrice).Build())
	}
	return instructions, nil
}
