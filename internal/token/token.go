package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTTL = 24 * time.Hour

var ErrInvalid = errors.New("invalid session token")

// Claims identifies the signed-in phone number and the device it signed in on.
type Claims struct {
	Phone    string
	DeviceID string
	IssuedAt time.Time
	Expires  time.Time
}

// Issuer signs and parses HS256 session tokens handed out when a device
// reaches the home screen.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(key []byte) *Issuer {
	return &Issuer{key: key, ttl: defaultTTL, now: time.Now}
}

// WithClock returns a copy of the issuer that stamps tokens using now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *Issuer) Issue(phone, deviceID string) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub":    phone,
		"device": deviceID,
		"iat":    now.Unix(),
		"exp":    now.Add(i.ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Parse validates raw and returns its claims. Any failure is ErrInvalid.
func (i *Issuer) Parse(raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.key, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalid
	}

	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalid
	}
	phone, _ := mc["sub"].(string)
	if phone == "" {
		return Claims{}, ErrInvalid
	}
	device, _ := mc["device"].(string)

	out := Claims{Phone: phone, DeviceID: device}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.Expires = exp.Time
	}
	return out, nil
}
