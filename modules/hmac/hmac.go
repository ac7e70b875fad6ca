// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package hmac signs opaque tokens (pagination cursors) so clients cannot forge them.
package hmac

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

type HMACConfig struct {
	// Empty means a random per-process key; tokens then do not survive restarts.
	Secret string `env:"SECRET"`
}

type HMACSigner struct {
	key []byte
}

var (
	ErrMissingKey   = errors.New("missing hmac key")
	ErrInvalidToken = errors.New("invalid token")
)

// NewHMACSigner builds a HMAC signer using the provided secret
func NewHMACSigner(secKey []byte) (*HMACSigner, error) {
	if len(secKey) == 0 {
		return nil, ErrMissingKey
	}
	key := make([]byte, len(secKey))
	copy(key, secKey)
	return &HMACSigner{key: key}, nil
}

// NewRandomHMACSigner builds a signer with a 32 byte key from crypto/rand.
func NewRandomHMACSigner() (*HMACSigner, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return &HMACSigner{key: key}, nil
}

// Sign returns base64url(payload) + "." + base64url(HMAC-SHA256(base64url(payload))).
// Both halves are URL safe so tokens can travel in query strings.
func (h *HMACSigner) Sign(payload []byte) (string, error) {
	payloadB64 := base64.RawURLEncoding.EncodeToString(payload)
	return payloadB64 + "." + h.sign(payloadB64), nil
}

func (h *HMACSigner) Verify(token string) ([]byte, error) {
	payloadB64, sigB64, ok := strings.Cut(token, ".")
	if !ok || strings.Contains(sigB64, ".") {
		return nil, ErrInvalidToken
	}

	got, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	want, _ := base64.RawURLEncoding.DecodeString(h.sign(payloadB64))
	if !hmac.Equal(want, got) {
		return nil, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return payload, nil
}

func (h *HMACSigner) sign(payloadB64 string) string {
	mac := hmac.New(sha256.New, h.key)
	_, _ = mac.Write([]byte(payloadB64))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
