package suite

import (
	"golang.org/x/crypto/bcrypt"
)

func init() {
	Register("bcrypt", Algorithm{
		Encrypt: bcryptEncrypt,
		Check:   bcryptCheck,
		Defaults: Options{
			"cost": bcrypt.DefaultCost,
		},
		SharedKeys: []string{"cost"},
		// bcrypt embeds its own random salt, so its output is not
		// reproducible and cannot feed a following step.
		FinalOnly: true,
	})
}

func bcryptEncrypt(input, salt []byte, opts Options, settings Settings) ([]byte, error) {
	cost, err := intOpt(opts, "bcrypt", "cost")
	if err != nil {
		return nil, err
	}
	return bcrypt.GenerateFromPassword(input, cost)
}

func bcryptCheck(input, stored []byte, opts Options, settings Settings) (bool, error) {
	err := bcrypt.CompareHashAndPassword(stored, input)
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
