package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func TestNewVerifierRequiresIssuerAndJWKSURL(t *testing.T) {
	if _, err := NewVerifier(VerifierConfig{Issuer: "issuer-a"}); err == nil {
		t.Fatalf("expected missing jwks url to fail")
	}
	if _, err := NewVerifier(VerifierConfig{JWKSURL: "http://jwks.test"}); err == nil {
		t.Fatalf("expected missing issuer to fail")
	}
}

func TestJWKSVerifyClaimsAndRefreshOnUnknownKid(t *testing.T) {
	key1, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key1: %v", err)
	}
	key2, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key2: %v", err)
	}

	active := "kid-1"
	jwksServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=1")
		resp := map[string]any{"keys": []map[string]string{toJWK(active, publicKeyByKid(active, key1.PublicKey, key2.PublicKey))}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer jwksServer.Close()

	v, err := NewVerifier(VerifierConfig{
		JWKSURL:  jwksServer.URL,
		Issuer:   "issuer-a",
		Audience: "aud-a",
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	// First token uses kid-1.
	signed1 := signSessionToken(t, key1, "kid-1", Claims{
		Email:      "ana@example.com",
		GivenName:  "Ana",
		FamilyName: "Silva",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "idp_123",
			Issuer:    "issuer-a",
			Audience:  jwt.ClaimStrings{"aud-a"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-time.Second)),
		},
	})
	claims, err := v.Verify(signed1)
	if err != nil {
		t.Fatalf("verify token1: %v", err)
	}
	if claims.Email != "ana@example.com" || claims.Subject != "idp_123" {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.GivenName != "Ana" || claims.FamilyName != "Silva" {
		t.Fatalf("name claims = %q %q", claims.GivenName, claims.FamilyName)
	}

	// Rotate to kid-2; the verifier refreshes JWKS on the unknown kid.
	active = "kid-2"
	signed2 := signSessionToken(t, key2, "kid-2", Claims{
		Email: "bob@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "idp_456",
			Issuer:    "issuer-a",
			Audience:  jwt.ClaimStrings{"aud-a"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-time.Second)),
		},
	})
	claims, err = v.Verify(signed2)
	if err != nil {
		t.Fatalf("verify token2: %v", err)
	}
	if claims.Email != "bob@example.com" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestJWKSRejectsWrongIssuerAndExpiry(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	jwksServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{"keys": []map[string]string{toJWK("kid-1", key.PublicKey)}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer jwksServer.Close()

	v, err := NewVerifier(VerifierConfig{
		JWKSURL: jwksServer.URL,
		Issuer:  "issuer-a",
		Leeway:  time.Second,
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	wrongIssuer := signSessionToken(t, key, "kid-1", Claims{
		Email: "ana@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "idp_123",
			Issuer:    "issuer-b",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	if _, err := v.Verify(wrongIssuer); err == nil {
		t.Fatalf("expected wrong issuer to fail")
	}

	expired := signSessionToken(t, key, "kid-1", Claims{
		Email: "ana@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "idp_123",
			Issuer:    "issuer-a",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		},
	})
	if _, err := v.Verify(expired); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestJWKSRejectsNonRS256(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	jwksServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{"keys": []map[string]string{toJWK("kid-1", rsaKey.PublicKey)}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer jwksServer.Close()

	v, err := NewVerifier(VerifierConfig{JWKSURL: jwksServer.URL, Issuer: "issuer-a"})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "idp_123",
		Issuer:    "issuer-a",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	token.Header["kid"] = "kid-1"
	signed, err := token.SignedString([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := v.Verify(signed); err == nil {
		t.Fatalf("expected hs256 token to fail")
	}
}

func signSessionToken(t *testing.T, key *rsa.PrivateKey, kid string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func toJWK(kid string, key rsa.PublicKey) map[string]string {
	return map[string]string{
		"kty": "RSA",
		"kid": kid,
		"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}
}

func publicKeyByKid(kid string, key1, key2 rsa.PublicKey) rsa.PublicKey {
	if kid == "kid-2" {
		return key2
	}
	return key1
}
