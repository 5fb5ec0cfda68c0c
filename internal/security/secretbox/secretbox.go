// Package secretbox cifra secretos en reposo (client secrets de providers)
// usando NaCl secretbox (XSalsa20-Poly1305) con una clave maestra por entorno.
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
	masterKeyEnvVar   = "SOCIALGATE_MASTER_KEY"
	nonceSize         = 24 // nonce de secretbox (192 bits)
	requiredKeyLength = 32
	sep               = "|" // nonce|ciphertext (ambos en base64)
)

var (
	masterKey     *[32]byte
	masterKeyOnce sync.Once
	loadErr       error
	mu            sync.RWMutex
)

// ensureLoaded carga la clave maestra desde SOCIALGATE_MASTER_KEY (base64) una sola vez.
func ensureLoaded() error {
	masterKeyOnce.Do(func() {
		kb64 := strings.TrimSpace(os.Getenv(masterKeyEnvVar))
		if kb64 == "" {
			loadErr = fmt.Errorf("%s no seteada; genere una clave con: openssl rand -base64 32", masterKeyEnvVar)
			return
		}
		k, err := base64.StdEncoding.DecodeString(kb64)
		if err != nil {
			loadErr = fmt.Errorf("decode %s: %w", masterKeyEnvVar, err)
			return
		}
		if len(k) != requiredKeyLength {
			loadErr = fmt.Errorf("%s debe decodificar a %d bytes, obtuvo %d", masterKeyEnvVar, requiredKeyLength, len(k))
			return
		}
		var key [32]byte
		copy(key[:], k)
		mu.Lock()
		masterKey = &key
		mu.Unlock()
	})
	return loadErr
}

// Ready expone si la clave está cargada (útil para healthchecks/config print).
func Ready() bool {
	mu.RLock()
	defer mu.RUnlock()
	return masterKey != nil
}

// Encrypt cifra plainText y devuelve base64(nonce)|base64(ciphertext).
func Encrypt(plainText string) (string, error) {
	if err := ensureLoaded(); err != nil {
		return "", err
	}
	mu.RLock()
	key := masterKey
	mu.RUnlock()

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	ct := secretbox.Seal(nil, []byte(plainText), &nonce, key)
	return base64.StdEncoding.EncodeToString(nonce[:]) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt revierte Encrypt. Falla si el ciphertext fue alterado.
func Decrypt(encoded string) (string, error) {
	if err := ensureLoaded(); err != nil {
		return "", err
	}
	mu.RLock()
	key := masterKey
	mu.RUnlock()

	parts := strings.SplitN(encoded, sep, 2)
	if len(parts) != 2 {
		return "", errors.New("secretbox: formato inválido, se esperaba nonce|ciphertext")
	}
	nb, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nb) != nonceSize {
		return "", errors.New("secretbox: nonce inválido")
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", errors.New("secretbox: ciphertext inválido")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], nb)
	pt, ok := secretbox.Open(nil, ct, &nonce, key)
	if !ok {
		return "", errors.New("secretbox: autenticación fallida")
	}
	return string(pt), nil
}

// UnsafeResetForTests limpia el estado global. Solo para tests.
func UnsafeResetForTests() {
	mu.Lock()
	masterKey = nil
	mu.Unlock()
	masterKeyOnce = sync.Once{}
	loadErr = nil
}
