package security

import (
	"github.com/pquerna/otp/totp"
)

// TOTPProvisioner handles authenticator-app enrollment. The secret is
// displayed to the user exactly once through the provisioning URI and
// only its server-side copy is kept for later code checks.
type TOTPProvisioner struct {
	Issuer string
}

func NewTOTPProvisioner(issuer string) *TOTPProvisioner {
	return &TOTPProvisioner{Issuer: issuer}
}

// Enroll generates a fresh random base32 secret (160 bits) and the
// otpauth:// URI that encodes it for the given account
func (p *TOTPProvisioner) Enroll(account string) (secret, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      p.Issuer,
		AccountName: account,
		SecretSize:  20,
	})
	if err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

// VerifyCode checks a submitted code against the stored secret with
// the standard one-step skew window. Malformed input is just a false
func (p *TOTPProvisioner) VerifyCode(secret, code string) bool {
	return totp.Validate(code, secret)
}
