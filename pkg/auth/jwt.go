package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTConfig holds JWT configuration. Exactly one key source is used, in the
// order PrivateKeyPEM, PublicKeyPEM, Secret.
type JWTConfig struct {
	// Secret is an HMAC-SHA256 key shared with the issuer.
	Secret string

	// PrivateKeyPEM enables issuing as well as validating (RS256).
	PrivateKeyPEM string

	// PublicKeyPEM validates RS256 tokens minted elsewhere.
	PublicKeyPEM string

	Issuer     string
	Expiration time.Duration
}

// Enabled reports whether any key is configured.
func (c JWTConfig) Enabled() bool {
	return c.Secret != "" || c.PrivateKeyPEM != "" || c.PublicKeyPEM != ""
}

// JWTService issues and validates staff tokens. signKey is nil in
// validation-only mode.
type JWTService struct {
	config    JWTConfig
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
}

func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	switch {
	case cfg.PrivateKeyPEM != "":
		privKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse RSA private key: %w", err)
		}
		return &JWTService{config: cfg, method: jwt.SigningMethodRS256, signKey: privKey, verifyKey: &privKey.PublicKey}, nil

	case cfg.PublicKeyPEM != "":
		pubKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse RSA public key: %w", err)
		}
		return &JWTService{config: cfg, method: jwt.SigningMethodRS256, verifyKey: pubKey}, nil

	case cfg.Secret != "":
		key := []byte(cfg.Secret)
		return &JWTService{config: cfg, method: jwt.SigningMethodHS256, signKey: key, verifyKey: key}, nil
	}
	return nil, errors.New("jwt configuration requires PrivateKeyPEM, PublicKeyPEM, or Secret")
}

// IssueToken mints a token for a staff member.
func (s *JWTService) IssueToken(email, role string, now time.Time) (string, error) {
	if s.signKey == nil {
		return "", errors.New("cannot issue token: validation-only mode")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Email: email,
		Role:  role,
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.signKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", s.method.Alg(), err)
	}
	return signed, nil
}

// ValidateToken parses a token signed with the configured algorithm only,
// requiring an expiry, the configured issuer if any, and an email.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.verifyKey, nil
	}, opts...); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.ActorEmail() == "" {
		return nil, errors.New("token carries no email")
	}
	return claims, nil
}

// LoadKeyFromFile reads a PEM-encoded key from a file path.
func LoadKeyFromFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file %q: %w", path, err)
	}
	return data, nil
}

// GenerateKeyPair returns a PEM-encoded 2048-bit RSA key pair for local
// development and tests.
func GenerateKeyPair() (privateKeyPEM, publicKeyPEM []byte, err error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("generate RSA key: %w", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	pubBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal public key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})

	return privPEM, pubPEM, nil
}
