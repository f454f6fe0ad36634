package license

import (
	"context"
	"errors"
	"testing"

	"github.com/keygen-sh/keygen-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testGate(t *testing.T, settings Settings, validate validateFunc) *Gate {
	g := NewGate(settings, zaptest.NewLogger(t))
	g.fingerprint = func() (string, error) { return "fp", nil }
	g.validate = validate
	return g
}

func TestGate_DisabledSkipsValidation(t *testing.T) {
	g := testGate(t, Settings{}, func(context.Context, string) (*keygen.License, error) {
		t.Fatal("validate must not be called")
		return nil, nil
	})
	assert.NoError(t, g.Check(context.Background()))
}

func TestGate_MissingKey(t *testing.T) {
	g := testGate(t, Settings{AccountID: "acc", ProductID: "prod"}, nil)
	assert.ErrorIs(t, g.Check(context.Background()), ErrLicenseMissing)
}

func TestGate_Outcomes(t *testing.T) {
	settings := Settings{Key: "ABCDEFGH-1234", AccountID: "acc", ProductID: "prod"}

	t.Run("valid", func(t *testing.T) {
		g := testGate(t, settings, func(_ context.Context, fp string) (*keygen.License, error) {
			assert.Equal(t, "fp", fp)
			return &keygen.License{ID: "lic-1"}, nil
		})
		require.NoError(t, g.Check(context.Background()))
	})

	t.Run("expired", func(t *testing.T) {
		g := testGate(t, settings, func(context.Context, string) (*keygen.License, error) {
			return nil, keygen.ErrLicenseExpired
		})
		assert.ErrorIs(t, g.Check(context.Background()), ErrLicenseExpired)
	})

	t.Run("other failure", func(t *testing.T) {
		g := testGate(t, settings, func(context.Context, string) (*keygen.License, error) {
			return nil, errors.New("network down")
		})
		err := g.Check(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "network down")
	})

	t.Run("nil license", func(t *testing.T) {
		g := testGate(t, settings, func(context.Context, string) (*keygen.License, error) {
			return nil, nil
		})
		assert.EqualError(t, g.Check(context.Background()), "license not found")
	})
}

func TestFingerprintOf(t *testing.T) {
	a := fingerprintOf("host", "aa:bb", "linux")
	assert.Len(t, a, 64)
	assert.Equal(t, a, fingerprintOf("host", "aa:bb", "linux"))
	assert.NotEqual(t, a, fingerprintOf("host", "aa:bc", "linux"))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "ABCDEFGH...", maskKey("ABCDEFGH-1234"))
	assert.Equal(t, "****", maskKey("short"))
}
