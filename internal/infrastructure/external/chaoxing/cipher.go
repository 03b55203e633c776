package chaoxing

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// Scheme names the credential encoding the login form expects.
type Scheme string

const (
	SchemeAES    Scheme = "aes"
	SchemeDES    Scheme = "des"
	SchemeBase64 Scheme = "base64"
)

// Cipher encodes phone and password for the login form.
//
// aes: AES-128-CBC, the key doubles as the IV, PKCS#7, base64 output.
// des: DES-ECB, PKCS#7, lowercase hex output.
// base64: standard base64 of the plaintext.
type Cipher struct {
	scheme Scheme
	key    []byte
	block  cipher.Block
}

// NewCipher validates the scheme and key material.
func NewCipher(scheme Scheme, key string) (*Cipher, error) {
	c := &Cipher{scheme: scheme}

	switch scheme {
	case SchemeAES:
		if len(key) < aes.BlockSize {
			return nil, newError("NewCipher", ErrConfiguration,
				fmt.Sprintf("aes key must be at least %d bytes", aes.BlockSize), nil)
		}
		c.key = []byte(key)[:aes.BlockSize]
		block, err := aes.NewCipher(c.key)
		if err != nil {
			return nil, newError("NewCipher", ErrConfiguration, "invalid aes key", err)
		}
		c.block = block
	case SchemeDES:
		if len(key) < des.BlockSize {
			return nil, newError("NewCipher", ErrConfiguration,
				fmt.Sprintf("des key must be at least %d bytes", des.BlockSize), nil)
		}
		c.key = []byte(key)[:des.BlockSize]
		block, err := des.NewCipher(c.key)
		if err != nil {
			return nil, newError("NewCipher", ErrConfiguration, "invalid des key", err)
		}
		c.block = block
	case SchemeBase64:
	default:
		return nil, newError("NewCipher", ErrConfiguration,
			fmt.Sprintf("unknown encrypt scheme %q", scheme), nil)
	}

	return c, nil
}

// Scheme returns the configured scheme.
func (c *Cipher) Scheme() Scheme {
	return c.scheme
}

// Encode encodes plaintext for the login form.
func (c *Cipher) Encode(plaintext string) string {
	data := []byte(plaintext)

	switch c.scheme {
	case SchemeAES:
		padded := pkcs7Pad(data, aes.BlockSize)
		out := make([]byte, len(padded))
		cipher.NewCBCEncrypter(c.block, c.key).CryptBlocks(out, padded)
		return base64.StdEncoding.EncodeToString(out)
	case SchemeDES:
		padded := pkcs7Pad(data, des.BlockSize)
		out := make([]byte, len(padded))
		for i := 0; i < len(padded); i += des.BlockSize {
			c.block.Encrypt(out[i:i+des.BlockSize], padded[i:i+des.BlockSize])
		}
		return hex.EncodeToString(out)
	default:
		return base64.StdEncoding.EncodeToString(data)
	}
}

// Decode reverses Encode.
func (c *Cipher) Decode(encoded string) (string, error) {
	switch c.scheme {
	case SchemeAES:
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return "", fmt.Errorf("decode base64: %w", err)
		}
		if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
			return "", errors.New("ciphertext is not a whole number of blocks")
		}
		out := make([]byte, len(raw))
		cipher.NewCBCDecrypter(c.block, c.key).CryptBlocks(out, raw)
		plain, err := pkcs7Unpad(out, aes.BlockSize)
		if err != nil {
			return "", err
		}
		return string(plain), nil
	case SchemeDES:
		raw, err := hex.DecodeString(encoded)
		if err != nil {
			return "", fmt.Errorf("decode hex: %w", err)
		}
		if len(raw) == 0 || len(raw)%des.BlockSize != 0 {
			return "", errors.New("ciphertext is not a whole number of blocks")
		}
		out := make([]byte, len(raw))
		for i := 0; i < len(raw); i += des.BlockSize {
			c.block.Decrypt(out[i:i+des.BlockSize], raw[i:i+des.BlockSize])
		}
		plain, err := pkcs7Unpad(out, des.BlockSize)
		if err != nil {
			return "", err
		}
		return string(plain), nil
	default:
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return "", fmt.Errorf("decode base64: %w", err)
		}
		return string(raw), nil
	}
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte{}, data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty padded data")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
