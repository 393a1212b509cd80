package hookx

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
)

// SignatureHeader carries the Mandrill webhook signature.
const SignatureHeader = "X-Mandrill-Signature"

const defaultSecretName = "secret"

// AuthConfig configures webhook authentication.
type AuthConfig struct {
	// Secret must match the query parameter named SecretName.
	Secret     string
	SecretName string
	// SignatureKey enables signature checks on POST. WebhookURL must then be
	// the exact URL registered with Mandrill.
	SignatureKey string
	WebhookURL   string
}

// Authenticator admits or rejects inbound webhook requests.
type Authenticator struct {
	secret       string
	secretName   string
	signatureKey []byte
	webhookURL   string
}

// NewAuthenticator validates cfg. A missing secret, or a signature key
// without the webhook URL it signs, is a configuration error.
func NewAuthenticator(cfg AuthConfig) (*Authenticator, error) {
	if cfg.Secret == "" {
		return nil, hookxErrors.NewWithMessage(ErrConfiguration, "Webhook secret is not set")
	}
	if cfg.SignatureKey != "" && cfg.WebhookURL == "" {
		return nil, hookxErrors.NewWithMessage(ErrConfiguration, "Webhook signature key is set but the webhook URL is not")
	}
	if cfg.SecretName == "" {
		cfg.SecretName = defaultSecretName
	}

	return &Authenticator{
		secret:       cfg.Secret,
		secretName:   cfg.SecretName,
		signatureKey: []byte(cfg.SignatureKey),
		webhookURL:   cfg.WebhookURL,
	}, nil
}

// SecretName is the query parameter holding the shared secret.
func (a *Authenticator) SecretName() string {
	return a.secretName
}

// SigningEnabled reports whether POSTs must carry a valid signature.
func (a *Authenticator) SigningEnabled() bool {
	return len(a.signatureKey) > 0
}

// CheckSecret compares the supplied query secret with the configured one.
func (a *Authenticator) CheckSecret(supplied string) error {
	if !hmac.Equal([]byte(supplied), []byte(a.secret)) {
		return hookxErrors.New(ErrForbidden).WithDetail("reason", "secret mismatch")
	}
	return nil
}

// Sign computes the signature Mandrill sends for form posted to the
// configured webhook URL.
func (a *Authenticator) Sign(form url.Values) string {
	return Sign(a.signatureKey, a.webhookURL, form)
}

// VerifySignature checks signature against form. It passes when signing is
// disabled.
func (a *Authenticator) VerifySignature(signature string, form url.Values) error {
	if !a.SigningEnabled() {
		return nil
	}
	if signature == "" {
		return hookxErrors.NewWithMessage(ErrForbidden, SignatureHeader+" not set")
	}
	if !hmac.Equal([]byte(signature), []byte(a.Sign(form))) {
		return hookxErrors.NewWithMessage(ErrForbidden, "Signature doesn't match")
	}
	return nil
}

// Sign returns base64(HMAC-SHA1(key, webhookURL + k1 + v1 + k2 + v2 ...))
// with keys sorted and each value of a key appended in order.
func Sign(key []byte, webhookURL string, form url.Values) string {
	mac := hmac.New(sha1.New, key)
	mac.Write([]byte(webhookURL))

	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range form[k] {
			mac.Write([]byte(k))
			mac.Write([]byte(v))
		}
	}

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
