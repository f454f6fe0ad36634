// internal/license/keygen.go
package license

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/keygen-sh/keygen-go/v3"
	"go.uber.org/zap"
)

var (
	ErrLicenseExpired = errors.New("license has expired")
	ErrLicenseMissing = errors.New("license key is not configured")
)

// Settings описывает учетные данные Keygen.
type Settings struct {
	Key          string
	AccountID    string
	ProductID    string
	ProductToken string
}

// Enabled сообщает, нужно ли проверять лицензию.
func (s Settings) Enabled() bool {
	return s.AccountID != "" && s.ProductID != ""
}

// validateFunc – точка подмены keygen.Validate в тестах.
type validateFunc func(ctx context.Context, fingerprint string) (*keygen.License, error)

// Gate проверяет лицензию перед запуском минтера.
type Gate struct {
	logger      *zap.Logger
	settings    Settings
	fingerprint func() (string, error)
	validate    validateFunc
}

// NewGate creates a Keygen-backed license gate.
func NewGate(settings Settings, logger *zap.Logger) *Gate {
	return &Gate{
		logger:      logger.Named("license"),
		settings:    settings,
		fingerprint: Fingerprint,
		validate: func(ctx context.Context, fp string) (*keygen.License, error) {
			keygen.Account = settings.AccountID
			keygen.Product = settings.ProductID
			keygen.Token = settings.ProductToken
			keygen.LicenseKey = settings.Key
			return keygen.Validate(ctx, fp)
		},
	}
}

// Check validates the license and activates this machine when needed.
// Без настроек Keygen проверка пропускается.
func (g *Gate) Check(ctx context.Context) error {
	if !g.settings.Enabled() {
		g.logger.Debug("License check disabled")
		return nil
	}
	if g.settings.Key == "" {
		return ErrLicenseMissing
	}

	g.logger.Info("Validating license", zap.String("key", maskKey(g.settings.Key)))

	fingerprint, err := g.fingerprint()
	if err != nil {
		return fmt.Errorf("failed to generate machine fingerprint: %w", err)
	}

	lic, err := g.validate(ctx, fingerprint)
	switch {
	case errors.Is(err, keygen.ErrLicenseNotActivated):
		g.logger.Info("License not activated, attempting activation")
		if lic == nil {
			return fmt.Errorf("license validation failed: %w", err)
		}
		machine, activateErr := lic.Activate(ctx, fingerprint)
		if activateErr != nil {
			return fmt.Errorf("failed to activate license: %w", activateErr)
		}
		g.logger.Info("License activated successfully",
			zap.String("machine_id", machine.ID),
			zap.String("fingerprint", fingerprint),
		)
	case errors.Is(err, keygen.ErrLicenseExpired):
		return ErrLicenseExpired
	case err != nil:
		return fmt.Errorf("license validation failed: %w", err)
	}

	if lic == nil {
		return fmt.Errorf("license not found")
	}

	g.logger.Info("License validation successful", zap.String("license_id", lic.ID))
	return nil
}

// Heartbeat периодически повторяет проверку, пока не отменен ctx.
func (g *Gate) Heartbeat(ctx context.Context, interval time.Duration) {
	if !g.settings.Enabled() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.Check(ctx); err != nil {
				g.logger.Warn("License heartbeat failed", zap.Error(err))
				continue
			}
			g.logger.Debug("License heartbeat sent successfully")
		}
	}
}

// Fingerprint строит отпечаток машины: hostname + первый MAC + OS.
func Fingerprint() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	var macAddresses []string
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 && len(iface.HardwareAddr) > 0 {
			macAddresses = append(macAddresses, iface.HardwareAddr.String())
		}
	}
	if len(macAddresses) == 0 {
		return "", fmt.Errorf("no network interfaces found")
	}
	sort.Strings(macAddresses)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return fingerprintOf(hostname, macAddresses[0], runtime.GOOS), nil
}

func fingerprintOf(hostname, mac, goos string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s-%s-%s", hostname, mac, goos)))
	return fmt.Sprintf("%x", hash)
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:8] + "..."
}
