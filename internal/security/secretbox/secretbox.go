// Package secretbox cifra secretos en reposo (client_secret del provider)
// usando NaCl secretbox (XSalsa20-Poly1305) con una clave maestra de entorno.
package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	secretBoxEnvVar   = "SECRETBOX_MASTER_KEY"
	nonceSize         = 24 // nonce de NaCl secretbox (192 bits)
	requiredKeyLength = 32
	sep               = "|" // nonce|ciphertext (ambos en base64)
)

var (
	masterKey     [requiredKeyLength]byte
	keyLoaded     bool
	masterKeyOnce sync.Once
	loadErr       error
	mu            sync.RWMutex
)

// ErrCipherFormat indica que el texto cifrado no tiene el formato nonce|ciphertext.
var ErrCipherFormat = errors.New("secretbox: invalid ciphertext format")

// ensureLoaded carga la clave maestra desde SECRETBOX_MASTER_KEY (base64) una sola vez.
func ensureLoaded() error {
	masterKeyOnce.Do(func() {
		kb64 := strings.TrimSpace(os.Getenv(secretBoxEnvVar))
		if kb64 == "" {
			loadErr = fmt.Errorf("%s no seteada; genere una clave con: openssl rand -base64 32", secretBoxEnvVar)
			return
		}
		k, err := base64.StdEncoding.DecodeString(kb64)
		if err != nil {
			loadErr = fmt.Errorf("decode %s: %w", secretBoxEnvVar, err)
			return
		}
		if len(k) != requiredKeyLength {
			loadErr = fmt.Errorf("%s debe decodificar a %d bytes, obtuvo %d", secretBoxEnvVar, requiredKeyLength, len(k))
			return
		}
		mu.Lock()
		copy(masterKey[:], k)
		keyLoaded = true
		mu.Unlock()
	})
	return loadErr
}

// IsReady expone si la clave está cargada (útil para healthchecks/config print).
func IsReady() bool {
	mu.RLock()
	defer mu.RUnlock()
	return keyLoaded
}

// Encrypt cifra plainText y devuelve base64(nonce)|base64(ciphertext).
func Encrypt(plainText string) (string, error) {
	if err := ensureLoaded(); err != nil {
		return "", err
	}

	mu.RLock()
	var key [requiredKeyLength]byte
	key = masterKey
	mu.RUnlock()

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}

	ct := secretbox.Seal(nil, []byte(plainText), &nonce, &key)

	nonceB64 := base64.StdEncoding.EncodeToString(nonce[:])
	ctB64 := base64.StdEncoding.EncodeToString(ct)
	return nonceB64 + sep + ctB64, nil
}

// Decrypt descifra un valor producido por Encrypt.
func Decrypt(cipherText string) (string, error) {
	if err := ensureLoaded(); err != nil {
		return "", err
	}

	mu.RLock()
	var key [requiredKeyLength]byte
	key = masterKey
	mu.RUnlock()

	parts := strings.SplitN(cipherText, sep, 2)
	if len(parts) != 2 {
		return "", ErrCipherFormat
	}

	nonceRaw, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nonceRaw) != nonceSize {
		return "", ErrCipherFormat
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrCipherFormat
	}

	var nonce [nonceSize]byte
	copy(nonce[:], nonceRaw)

	plain, ok := secretbox.Open(nil, ct, &nonce, &key)
	if !ok {
		return "", errors.New("secretbox: open failed (clave incorrecta o datos corruptos)")
	}
	return string(plain), nil
}
