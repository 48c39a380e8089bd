package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testClientID = "test-client.apps.googleusercontent.com"

func newRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func signGoogleToken(t *testing.T, key *rsa.PrivateKey, claims googleClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "k1"
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims(now time.Time) googleClaims {
	return googleClaims{
		Email:         "ana@example.com",
		EmailVerified: true,
		Name:          "Ana",
		Picture:       "https://lh3.googleusercontent.com/a/ana",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Subject:   "1090001",
			Audience:  jwt.ClaimStrings{testClientID},
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestGoogleVerifierVerify(t *testing.T) {
	key := newRSAKey(t)
	other := newRSAKey(t)
	now := time.Now()

	verifier := NewGoogleVerifier(testClientID, func(*jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	})

	tests := []struct {
		name    string
		token   func() string
		wantErr error
	}{
		{
			name:  "valid token",
			token: func() string { return signGoogleToken(t, key, validClaims(now)) },
		},
		{
			name: "short issuer form",
			token: func() string {
				c := validClaims(now)
				c.Issuer = "accounts.google.com"
				return signGoogleToken(t, key, c)
			},
		},
		{
			name:    "empty token",
			token:   func() string { return "" },
			wantErr: ErrMissingCredential,
		},
		{
			name: "wrong audience",
			token: func() string {
				c := validClaims(now)
				c.Audience = jwt.ClaimStrings{"someone-else"}
				return signGoogleToken(t, key, c)
			},
			wantErr: ErrInvalidCredential,
		},
		{
			name: "wrong issuer",
			token: func() string {
				c := validClaims(now)
				c.Issuer = "https://evil.example.com"
				return signGoogleToken(t, key, c)
			},
			wantErr: ErrInvalidCredential,
		},
		{
			name: "expired",
			token: func() string {
				c := validClaims(now)
				c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
				return signGoogleToken(t, key, c)
			},
			wantErr: ErrInvalidCredential,
		},
		{
			name:    "signed by another key",
			token:   func() string { return signGoogleToken(t, other, validClaims(now)) },
			wantErr: ErrInvalidCredential,
		},
		{
			name: "hmac algorithm",
			token: func() string {
				s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims(now)).SignedString([]byte("x"))
				return s
			},
			wantErr: ErrInvalidCredential,
		},
		{
			name:    "garbage",
			token:   func() string { return "not-a-jwt" },
			wantErr: ErrInvalidCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := verifier.Verify(context.Background(), tt.token())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Verify() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if id.Subject != "1090001" || id.Email != "ana@example.com" || !id.EmailVerified {
				t.Errorf("Verify() identity = %+v", id)
			}
		})
	}
}

func TestNewGoogleJWKS(t *testing.T) {
	key := newRSAKey(t)
	jwksBody, _ := json.Marshal(map[string]interface{}{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "k1",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(jwksBody)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwks, err := NewGoogleJWKS(ctx, srv.URL, logger)
	if err != nil {
		t.Fatalf("NewGoogleJWKS() error = %v", err)
	}
	defer jwks.EndBackground()

	verifier := NewGoogleVerifier(testClientID, jwks.Keyfunc)
	id, err := verifier.Verify(ctx, signGoogleToken(t, key, validClaims(time.Now())))
	if err != nil {
		t.Fatalf("Verify() through JWKS error = %v", err)
	}
	if id.Name != "Ana" {
		t.Errorf("Name = %q, want Ana", id.Name)
	}
}
