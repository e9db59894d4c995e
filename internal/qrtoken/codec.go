// Package qrtoken signs and verifies the capability tokens embedded in table QR codes.
//
// Wire format: base64url(json payload) "." base64url(HMAC-SHA256(secret, first segment)).
// Signing is deterministic: the same payload and secret always yield the same token.
package qrtoken

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kingrain94/table-qr-api/internal/domain"
)

const separator = "."

var encoding = base64.RawURLEncoding

// Payload is the signed content of a table token. IssuedAt is unix milliseconds.
type Payload struct {
	TableID      string `json:"tableId"`
	TenantID     string `json:"tenantId"`
	TokenVersion int64  `json:"tokenVersion"`
	IssuedAt     int64  `json:"issuedAt"`
}

func (p Payload) IssuedAtTime() time.Time {
	return time.UnixMilli(p.IssuedAt)
}

type Codec struct {
	secret []byte
}

// NewCodec returns a codec keyed with secret. An empty secret is a configuration error.
func NewCodec(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("%w: qr secret key must not be empty", domain.ErrConfig)
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Sign serializes and signs the payload.
func (c *Codec) Sign(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token payload: %w", err)
	}
	body := encoding.EncodeToString(data)
	return body + separator + c.signature(body), nil
}

// Verify checks the signature and decodes the payload. Every failure returns
// domain.ErrInvalidToken without saying which check failed.
func (c *Codec) Verify(token string) (Payload, error) {
	if strings.Count(token, separator) != 1 {
		return Payload{}, domain.ErrInvalidToken
	}
	i := strings.LastIndex(token, separator)
	body, sig := token[:i], token[i+1:]
	if body == "" || sig == "" {
		return Payload{}, domain.ErrInvalidToken
	}

	expected := c.signature(body)
	if subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) != 1 {
		return Payload{}, domain.ErrInvalidToken
	}

	raw, err := encoding.DecodeString(body)
	if err != nil {
		return Payload{}, domain.ErrInvalidToken
	}

	var p Payload
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Payload{}, domain.ErrInvalidToken
	}
	if _, err := dec.Token(); err != io.EOF {
		return Payload{}, domain.ErrInvalidToken
	}
	if p.TableID == "" || p.TenantID == "" || p.TokenVersion < 0 {
		return Payload{}, domain.ErrInvalidToken
	}

	return p, nil
}

func (c *Codec) signature(body string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(body))
	return encoding.EncodeToString(mac.Sum(nil))
}
