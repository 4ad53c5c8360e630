package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"

	"github.com/DomeLiquid/paylink/core"
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is also the floor New accepts.
	DefaultIterations = 100_000

	keySize = 32
	ivSize  = 12
)

var _ core.KeyVault = (*Vault)(nil)

// Vault derives a per-link AES-256-GCM key from the link id and an
// application salt. The operator never learns the link id, so it cannot open
// the sealed keys it stores.
type Vault struct {
	appSalt     []byte
	iterations  int
	fingerprint string
	random      io.Reader
}

type OptFunc func(v *Vault)

// WithIterations raises the PBKDF2 work factor. New rejects anything below
// DefaultIterations.
func WithIterations(n int) OptFunc {
	return func(v *Vault) {
		v.iterations = n
	}
}

func WithRandom(r io.Reader) OptFunc {
	return func(v *Vault) {
		v.random = r
	}
}

func New(appSalt string, opts ...OptFunc) (*Vault, error) {
	if appSalt == "" {
		return nil, errors.New("vault: empty app salt")
	}
	sum := sha256.Sum256([]byte(appSalt))
	v := &Vault{
		appSalt:     []byte(appSalt),
		iterations:  DefaultIterations,
		fingerprint: hex.EncodeToString(sum[:8]),
		random:      rand.Reader,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.iterations < DefaultIterations {
		return nil, errors.Errorf("vault: %d iterations below the minimum of %d", v.iterations, DefaultIterations)
	}
	return v, nil
}

// Fingerprint identifies the app salt without revealing it.
func (v *Vault) Fingerprint() string {
	return v.fingerprint
}

func (v *Vault) Encrypt(plaintext []byte, linkId string) (core.SealedKey, error) {
	if linkId == "" {
		return core.SealedKey{}, errors.New("vault: empty link id")
	}
	aead, err := v.aead(linkId)
	if err != nil {
		return core.SealedKey{}, err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(v.random, iv); err != nil {
		return core.SealedKey{}, errors.Wrap(err, "vault: read iv")
	}
	ciphertext := aead.Seal(nil, iv, plaintext, nil)

	return core.SealedKey{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(iv),
		Salt:       v.fingerprint,
	}, nil
}

// Decrypt fails with core.ErrDecryptionFailed for a wrong link id, a foreign
// app salt or any tampering.
func (v *Vault) Decrypt(sealed core.SealedKey, linkId string) ([]byte, error) {
	if sealed.Salt != "" && sealed.Salt != v.fingerprint {
		return nil, errors.Wrap(core.ErrDecryptionFailed, "sealed under another app salt")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(sealed.Ciphertext)
	if err != nil {
		return nil, errors.Wrap(core.ErrDecryptionFailed, "ciphertext encoding")
	}
	iv, err := base64.StdEncoding.DecodeString(sealed.IV)
	if err != nil || len(iv) != ivSize {
		return nil, errors.Wrap(core.ErrDecryptionFailed, "iv encoding")
	}

	aead, err := v.aead(linkId)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, core.ErrDecryptionFailed
	}
	return plaintext, nil
}

func (v *Vault) aead(linkId string) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(linkId), v.appSalt, v.iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "vault: cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "vault: gcm")
	}
	return aead, nil
}
