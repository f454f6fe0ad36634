// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix – префикс переменных окружения, переопределяющих конфиг.
const EnvPrefix = "CANDY_MINTER"

type Config struct {
	License    string   `mapstructure:"license"`
	RPCList    []string `mapstructure:"rpc_list"`
	WalletFile string   `mapstructure:"wallet_file"`
	Wallet     string   `mapstructure:"wallet"`

	CandyMachineID        string `mapstructure:"candy_machine_id"`
	CandyGuardID          string `mapstructure:"candy_guard_id"`
	GuardGroup            string `mapstructure:"guard_group"`
	TokenMint             string `mapstructure:"token_mint"`
	PaymentDestinationATA string `mapstructure:"payment_destination_ata"`
	TokenAmount           uint64 `mapstructure:"token_amount"`
	NFTName               string `mapstructure:"nft_name"`

	ComputeUnits       uint32 `mapstructure:"compute_units"`
	ComputeUnitPrice   uint64 `mapstructure:"compute_unit_price"`
	FeeReserveLamports uint64 `mapstructure:"fee_reserve_lamports"`
	MintDelayMs        int    `mapstructure:"mint_delay_ms"`
	ConfirmTimeoutMs   int    `mapstructure:"confirm_timeout_ms"`
	ApprovalTimeoutMs  int    `mapstructure:"approval_timeout_ms"`
	MaxBatchSize       int    `mapstructure:"max_batch_size"`

	SingleSkipPreflight bool `mapstructure:"single_skip_preflight"`
	SingleMaxRetries    uint `mapstructure:"single_max_retries"`
	BatchSkipPreflight  bool `mapstructure:"batch_skip_preflight"`
	BatchMaxRetries     uint `mapstructure:"batch_max_retries"`

	DebugLogging bool   `mapstructure:"debug_logging"`
	LogFile      string `mapstructure:"log_file"`
	ReceiptsFile string `mapstructure:"receipts_file"`
	HTTPAddr     string `mapstructure:"http_addr"`

	KeygenAccount      string `mapstructure:"keygen_account"`
	KeygenProduct      string `mapstructure:"keygen_product"`
	KeygenProductToken string `mapstructure:"keygen_product_token"`
}

const (
	DefaultComputeUnits       = 800_000
	DefaultFeeReserveLamports = 10_000_000
	DefaultMintDelayMs        = 2000
	DefaultConfirmTimeoutMs   = 60_000
	DefaultApprovalTimeoutMs  = 120_000
	DefaultMaxBatchSize       = 10
	DefaultSingleMaxRetries   = 1
	DefaultBatchMaxRetries    = 3
	DefaultHTTPAddr           = ":8080"
	DefaultLogFile            = "logs/candy-minter.log"
	DefaultReceiptsFile       = "receipts/mints.csv"
	DefaultNFTName            = "OG VIP NFT"

	maxComputeUnits = 1_400_000
)

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"compute_units":         DefaultComputeUnits,
		"fee_reserve_lamports":  DefaultFeeReserveLamports,
		"mint_delay_ms":         DefaultMintDelayMs,
		"confirm_timeout_ms":    DefaultConfirmTimeoutMs,
		"approval_timeout_ms":   DefaultApprovalTimeoutMs,
		"max_batch_size":        DefaultMaxBatchSize,
		"single_skip_preflight": true,
		"single_max_retries":    DefaultSingleMaxRetries,
		"batch_skip_preflight":  false,
		"batch_max_retries":     DefaultBatchMaxRetries,
		"http_addr":             DefaultHTTPAddr,
		"log_file":              DefaultLogFile,
		"receipts_file":         DefaultReceiptsFile,
		"nft_name":              DefaultNFTName,
	}
}

// LoadConfig читает файл конфигурации, затем .env и переменные окружения
// с префиксом CANDY_MINTER. Пустой path – только окружение и значения по умолчанию.
func LoadConfig(path string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	loadEnvironmentVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.RPCList = splitList(cfg.RPCList)

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return fmt.Errorf("invalid RPC URL %q: %w", rpcURL, err)
		}
	}
	if cfg.WalletFile == "" {
		return errors.New("missing wallet_file in configuration")
	}

	required := map[string]string{
		"candy_machine_id": cfg.CandyMachineID,
		"candy_guard_id":   cfg.CandyGuardID,
	}
	for key, value := range required {
		if value == "" {
			return fmt.Errorf("missing %s in configuration", key)
		}
	}

	keys := map[string]string{
		"candy_machine_id":        cfg.CandyMachineID,
		"candy_guard_id":          cfg.CandyGuardID,
		"token_mint":              cfg.TokenMint,
		"payment_destination_ata": cfg.PaymentDestinationATA,
	}
	for key, value := range keys {
		if value == "" {
			continue
		}
		if _, err := solana.PublicKeyFromBase58(value); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	if (cfg.TokenMint == "") != (cfg.PaymentDestinationATA == "") {
		return errors.New("token_mint and payment_destination_ata must be set together")
	}

	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.ComputeUnits == 0 || cfg.ComputeUnits > maxComputeUnits {
		return errors.New("invalid compute_units")
	}
	if cfg.FeeReserveLamports == 0 {
		return errors.New("invalid fee_reserve_lamports")
	}
	if cfg.MintDelayMs < 0 {
		return errors.New("invalid mint_delay_ms")
	}
	if cfg.ConfirmTimeoutMs <= 0 {
		return errors.New("invalid confirm_timeout_ms")
	}
	if cfg.ApprovalTimeoutMs <= 0 {
		return errors.New("invalid approval_timeout_ms")
	}
	if cfg.MaxBatchSize < 1 {
		return errors.New("invalid max_batch_size")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv не видит ключи без значения по умолчанию при Unmarshal.
	for _, key := range []string{
		"license", "rpc_list", "wallet_file", "wallet",
		"candy_machine_id", "candy_guard_id", "guard_group",
		"token_mint", "payment_destination_ata", "token_amount",
		"compute_unit_price", "debug_logging",
		"keygen_account", "keygen_product", "keygen_product_token",
	} {
		_ = v.BindEnv(key)
	}
}

// splitList раскрывает значения вида "a,b" из переменной окружения.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if clean := strings.TrimSpace(part); clean != "" {
				out = append(out, clean)
			}
		}
	}
	return out
}

// MintDelay возвращает паузу между попытками батча.
func (c *Config) MintDelay() time.Duration {
	return time.Duration(c.MintDelayMs) * time.Millisecond
}

// ConfirmTimeout возвращает лимит ожидания подтверждения.
func (c *Config) ConfirmTimeout() time.Duration {
	return time.Duration(c.ConfirmTimeoutMs) * time.Millisecond
}

// ApprovalTimeout возвращает лимит ожидания подписи кошельком.
func (c *Config) ApprovalTimeout() time.Duration {
	return time.Duration(c.ApprovalTimeoutMs) * time.Millisecond
}

// PublicKey разбирает адрес из конфигурации; пустое значение – нулевой ключ.
func PublicKey(value string) solana.PublicKey {
	if value == "" {
		return solana.PublicKey{}
	}
	pk, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}
	}
	return pk
}

// LicenseEnabled сообщает, что проверка лицензии настроена.
func (c *Config) LicenseEnabled() bool {
	return c.License != "" && c.KeygenAccount != "" && c.KeygenProduct != ""
}
