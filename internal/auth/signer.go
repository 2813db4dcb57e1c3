// Package auth signs requests and manages the bearer token.
package auth

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/hal-client/internal/constants"
)

// Sign computes the request signature: the base64 SHA-256 digest of the
// headers serialized as a JSON object with sorted keys, followed by the body
// and the private key. The JSON is compact and does not escape HTML
// characters, so query strings in the URL header are hashed as sent.
func Sign(headers map[string]string, body []byte, privateKey string) (string, error) {
	var serialized bytes.Buffer

	encoder := json.NewEncoder(&serialized)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(headers); err != nil {
		return "", fmt.Errorf("serializing signed headers: %w", err)
	}

	digest := sha256.New()
	digest.Write(bytes.TrimSuffix(serialized.Bytes(), []byte("\n")))
	digest.Write(body)
	digest.Write([]byte(privateKey))

	return base64.StdEncoding.EncodeToString(digest.Sum(nil)), nil
}

// Signer produces Authorization header values from Credentials.
type Signer struct {
	credentials *Credentials
}

// NewSigner creates a signer. Nil credentials sign with an empty key.
func NewSigner(credentials *Credentials) *Signer {
	if credentials == nil {
		credentials = NewCredentials("", "", "")
	}

	return &Signer{credentials: credentials}
}

// Sign signs headers and body with the private key.
func (s *Signer) Sign(headers map[string]string, body []byte) (string, error) {
	return Sign(headers, body, s.credentials.PrivateKey)
}

// Authorization returns the Authorization header value: the bearer token
// when one is held, the signature otherwise.
func (s *Signer) Authorization(headers map[string]string, body []byte) (string, error) {
	if token := s.credentials.Token(); token != "" {
		return constants.BearerPrefix + token, nil
	}

	signature, err := s.Sign(headers, body)
	if err != nil {
		return "", err
	}

	return constants.BearerPrefix + signature, nil
}

// Credentials returns the credentials the signer reads.
func (s *Signer) Credentials() *Credentials {
	return s.credentials
}
