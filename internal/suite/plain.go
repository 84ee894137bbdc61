package suite

func init() {
	// Text-append transform for degenerate and test configurations. Not a
	// hash: the "ciphertext" is the input plus a configured suffix.
	Register("plain", Algorithm{
		Encrypt: plainEncrypt,
		Defaults: Options{
			"suffix": "",
		},
		SharedKeys: []string{"suffix"},
	})

	// Always-fail transform: a user whose suite ends in this step can never
	// authenticate. Used for explicit lockout of credentials. Final-only:
	// its output is a constant, so a following step would verify anything.
	Register("deny", Algorithm{
		Encrypt:   denyEncrypt,
		Check:     denyCheck,
		FinalOnly: true,
	})
}

func plainEncrypt(input, salt []byte, opts Options, settings Settings) ([]byte, error) {
	suffix, err := strOpt(opts, "plain", "suffix")
	if err != nil {
		return nil, err
	}
	out := append(append([]byte{}, input...), suffix...)
	return append(out, salt...), nil
}

func denyEncrypt(input, salt []byte, opts Options, settings Settings) ([]byte, error) {
	return []byte("denied"), nil
}

func denyCheck(input, stored []byte, opts Options, settings Settings) (bool, error) {
	return false, nil
}
