package suite

import (
	"golang.org/x/crypto/scrypt"
)

func init() {
	Register("scrypt", Algorithm{
		Encrypt: scryptEncrypt,
		Defaults: Options{
			"n":           32768,
			"r":           8,
			"p":           1,
			"key_length":  32,
			"salt_length": 16,
		},
		SharedKeys: []string{"n", "r", "p", "key_length", "salt_length"},
	})
}

func scryptEncrypt(input, salt []byte, opts Options, settings Settings) ([]byte, error) {
	n, err := intOpt(opts, "scrypt", "n")
	if err != nil {
		return nil, err
	}
	r, err := intOpt(opts, "scrypt", "r")
	if err != nil {
		return nil, err
	}
	p, err := intOpt(opts, "scrypt", "p")
	if err != nil {
		return nil, err
	}
	keyLength, err := intOpt(opts, "scrypt", "key_length")
	if err != nil {
		return nil, err
	}

	secret := append(append([]byte{}, input...), settings.Pepper...)
	return scrypt.Key(secret, salt, n, r, p, keyLength)
}
