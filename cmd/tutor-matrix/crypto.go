// ABOUTME: End-to-end encryption for tutor-matrix rooms
// ABOUTME: Keeps the mautrix crypto store in SQLite and resets it when the device changes

package main

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/crypto/cryptohelper"
)

// CryptoManager owns the crypto helper for the bridge's lifetime.
type CryptoManager struct {
	helper *cryptohelper.CryptoHelper
	logger *slog.Logger
}

// SetupCrypto enables E2EE on client and, when recoveryKey is set, verifies
// the device for cross-signing. A failed verification is logged, not fatal.
func SetupCrypto(ctx context.Context, client *mautrix.Client, userID, recoveryKey, dataDir string, logger *slog.Logger) (*CryptoManager, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := cryptoStorePath(dataDir, userID)
	logger.Info("setting up encryption", "db", dbPath)

	if err := resetStaleStore(dbPath, client.DeviceID.String(), logger); err != nil {
		return nil, err
	}

	helper, err := cryptohelper.NewCryptoHelper(client, deriveStoreKey(userID), dbPath)
	if err != nil {
		return nil, fmt.Errorf("creating crypto helper: %w", err)
	}
	if err := helper.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing crypto helper: %w", err)
	}
	client.Crypto = helper

	cm := &CryptoManager{helper: helper, logger: logger}
	if recoveryKey == "" {
		logger.Info("encryption initialized without cross-signing")
		return cm, nil
	}
	if err := cm.verify(ctx, recoveryKey); err != nil {
		logger.Warn("failed to verify with recovery key", "error", err)
	} else {
		logger.Info("encryption initialized with cross-signing verification")
	}
	return cm, nil
}

func (cm *CryptoManager) verify(ctx context.Context, recoveryKey string) error {
	machine := cm.helper.Machine()
	if machine == nil {
		return errors.New("crypto machine not initialized")
	}
	if err := machine.VerifyWithRecoveryKey(ctx, recoveryKey); err != nil {
		return fmt.Errorf("recovery key verification failed: %w", err)
	}
	return nil
}

// Close releases the crypto store.
func (cm *CryptoManager) Close() error {
	if cm.helper != nil {
		return cm.helper.Close()
	}
	return nil
}

// cryptoStorePath gives each bot account its own store file.
// Example: @tutor:matrix.org -> matrix-crypto-tutor_matrix.org.db
func cryptoStorePath(dataDir, userID string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r == ':':
			return '_'
		default:
			return -1
		}
	}, strings.TrimPrefix(userID, "@"))
	return filepath.Join(dataDir, "matrix-crypto-"+slug+".db")
}

func deriveStoreKey(userID string) []byte {
	h := sha256.Sum256([]byte("tutor-matrix-crypto:" + userID))
	return h[:]
}

// resetStaleStore removes a store whose account belongs to another device.
func resetStaleStore(dbPath, deviceID string, logger *slog.Logger) error {
	stored, err := storedDeviceID(dbPath)
	if err != nil {
		logger.Debug("could not read stored device id", "error", err)
		return nil
	}
	if stored == "" || stored == deviceID {
		return nil
	}

	logger.Warn("crypto store belongs to another device, resetting", "stored", stored, "current", deviceID)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing old crypto database: %w", err)
		}
	}
	return nil
}

// storedDeviceID returns the device id recorded in the store, or "" when
// there is no store or no account yet.
func storedDeviceID(dbPath string) (string, error) {
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var deviceID string
	err = db.QueryRow("SELECT device_id FROM crypto_account LIMIT 1").Scan(&deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return deviceID, nil
}
