package core

type (
	// KeyVault seals per-link spend keys so that only the holder of the link
	// id can open them.
	KeyVault interface {
		Encrypt(plaintext []byte, linkId string) (SealedKey, error)
		Decrypt(sealed SealedKey, linkId string) ([]byte, error)
	}

	// SealedKey fields are base64 encoded, ciphertext carries the GCM tag.
	SealedKey struct {
		Ciphertext string `json:"ciphertext"`
		IV         string `json:"iv"`
		Salt       string `json:"salt"`
	}
)
