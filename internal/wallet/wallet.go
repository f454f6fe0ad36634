// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var (
	// ErrNotConnected возвращается при подписи без загруженного ключа.
	ErrNotConnected = errors.New("wallet not connected")
	// ErrRejected возвращается, когда пользователь отклонил подпись.
	ErrRejected = errors.New("user rejected the request")
	// ErrWalletNotFound – кошелёк с указанным именем отсутствует в файле.
	ErrWalletNotFound = errors.New("wallet not found")
)

// Session – подключённый кошелёк, которым подписываются транзакции минта.
type Session interface {
	Connected() bool
	PublicKey() solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// Wallet представляет кошелёк Solana.
type Wallet struct {
	PrivateKey solana.PrivateKey
	Name       string

	mu       sync.Mutex
	ataCache map[solana.PublicKey]solana.PublicKey // Кеш для ассоциированных адресов токен-аккаунтов (ATA)
}

var _ Session = (*Wallet)(nil)

// NewWallet создаёт новый кошелёк из base58-encoded приватного ключа.
func NewWallet(privateKeyBase58 string) (*Wallet, error) {
	privateKeyBytes, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	return &Wallet{
		PrivateKey: solana.PrivateKey(privateKeyBytes),
		ataCache:   make(map[solana.PublicKey]solana.PublicKey),
	}, nil
}

// LoadWallets загружает кошельки из CSV-файла с колонками: [Name, PrivateKeyBase58].
// Строки с некорректным ключом пропускаются.
func LoadWallets(path string) (map[string]*Wallet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or missing data")
	}

	wallets := make(map[string]*Wallet)
	for _, record := range records[1:] {
		if len(record) != 2 {
			continue
		}
		w, err := NewWallet(record[1])
		if err != nil {
			continue
		}
		w.Name = record[0]
		wallets[record[0]] = w
	}
	return wallets, nil
}

// Select выбирает кошелёк по имени; пустое имя допустимо только для
// файла с единственным кошельком или берётся первый по алфавиту.
func Select(wallets map[string]*Wallet, name string) (*Wallet, error) {
	if name != "" {
		w, ok := wallets[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, name)
		}
		return w, nil
	}
	if len(wallets) == 0 {
		return nil, ErrWalletNotFound
	}
	names := make([]string, 0, len(wallets))
	for n := range wallets {
		names = append(names, n)
	}
	sort.Strings(names)
	return wallets[names[0]], nil
}

// Connected сообщает, что ключ загружен.
func (w *Wallet) Connected() bool {
	return w != nil && len(w.PrivateKey) == 64
}

// PublicKey возвращает адрес кошелька.
func (w *Wallet) PublicKey() solana.PublicKey {
	if !w.Connected() {
		return solana.PublicKey{}
	}
	return w.PrivateKey.PublicKey()
}

// SignTransaction добавляет подпись кошелька, не затрагивая уже
// поставленные подписи (например, ключа нового mint-аккаунта).
func (w *Wallet) SignTransaction(ctx context.Context, tx *solana.Transaction) error {
	if !w.Connected() {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	pub := w.PublicKey()
	_, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(pub) {
			return &w.PrivateKey
		}
		return nil
	})
	return err
}

// GetATA возвращает адрес ассоциированного токен-аккаунта (ATA) для заданного токена (mint).
// Если адрес уже был вычислен ранее, возвращается значение из кеша.
func (w *Wallet) GetATA(mint solana.PublicKey) (solana.PublicKey, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ataCache == nil {
		w.ataCache = make(map[solana.PublicKey]solana.PublicKey)
	}
	if ata, ok := w.ataCache[mint]; ok {
		return ata, nil
	}
	ata, _, err := solana.FindAssociatedTokenAddress(w.PublicKey(), mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	w.ataCache[mint] = ata
	return ata, nil
}

// String возвращает строковое представление кошелька (его публичный ключ).
func (w *Wallet) String() string {
	if w.Name != "" {
		return w.Name + " (" + w.PublicKey().String() + ")"
	}
	return w.PublicKey().String()
}
