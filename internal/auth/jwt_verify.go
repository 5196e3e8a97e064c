package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Roles known to the clinic backend.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleNurse   = "nurse"
	RoleAdmin   = "admin"
)

// Principal holds identity extracted from a validated session token.
type Principal struct {
	UserID int64
	Role   string
	Name   string
	Claims jwt.MapClaims
}

// IsStaff reports whether the principal works at the clinic.
func (p *Principal) IsStaff() bool {
	return p.Role == RoleDoctor || p.Role == RoleNurse || p.Role == RoleAdmin
}

var (
	ErrNoToken       = errors.New("no token provided")
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidIssuer = errors.New("invalid issuer")
	ErrMissingSub    = errors.New("missing sub claim")
	ErrMissingRole   = errors.New("missing role claim")
	ErrNoSecret      = errors.New("session secret is not configured")
)

// Verifier signs and verifies gateway session tokens. The clinic backend
// owns credentials; a session token only carries the identity it returned
// from a successful login.
type Verifier struct {
	cfg    Config
	secret []byte
	now    func() time.Time
}

// NewVerifier constructs a verifier from config.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Verifier{cfg: cfg, secret: []byte(cfg.Secret), now: time.Now}, nil
}

// Issue mints a session token for p and returns it with its expiry.
func (v *Verifier) Issue(p Principal) (string, time.Time, error) {
	now := v.now()
	exp := now.Add(v.cfg.TTL)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(p.UserID, 10),
		"iss":  v.cfg.Issuer,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
		"role": p.Role,
		"name": p.Name,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseAndVerifyToken verifies a bearer token, validates issuer/exp and returns Principal.
func (v *Verifier) ParseAndVerifyToken(tokenString string) (*Principal, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrNoToken
	}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}, SkipClaimsValidation: true}
	parsed, err := parser.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if iss, _ := claims["iss"].(string); iss != v.cfg.Issuer {
		return nil, ErrInvalidIssuer
	}
	if !claims.VerifyExpiresAt(v.now().Unix(), true) {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrMissingSub
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, ErrMissingSub
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return nil, ErrMissingRole
	}
	name, _ := claims["name"].(string)

	return &Principal{
		UserID: userID,
		Role:   strings.ToLower(role),
		Name:   name,
		Claims: claims,
	}, nil
}
