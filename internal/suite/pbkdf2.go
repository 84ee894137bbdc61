package suite

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/pbkdf2"
)

func init() {
	Register("pbkdf2", Algorithm{
		Encrypt: pbkdf2Encrypt,
		Defaults: Options{
			"iterations":  100000,
			"hmac":        "sha256",
			"key_length":  32,
			"salt_length": 16,
		},
		SharedKeys: []string{"iterations", "hmac", "key_length", "salt_length"},
	})
}

func pbkdf2Encrypt(input, salt []byte, opts Options, settings Settings) ([]byte, error) {
	iterations, err := intOpt(opts, "pbkdf2", "iterations")
	if err != nil {
		return nil, err
	}
	keyLength, err := intOpt(opts, "pbkdf2", "key_length")
	if err != nil {
		return nil, err
	}
	hmacName, err := strOpt(opts, "pbkdf2", "hmac")
	if err != nil {
		return nil, err
	}

	var hashFn func() hash.Hash
	switch hmacName {
	case "sha1":
		hashFn = sha1.New
	case "sha256":
		hashFn = sha256.New
	case "sha512":
		hashFn = sha512.New
	default:
		return nil, &DecodeError{Algorithm: "pbkdf2", Key: "hmac"}
	}

	secret := append(append([]byte{}, input...), settings.Pepper...)
	return pbkdf2.Key(secret, salt, iterations, keyLength, hashFn), nil
}
