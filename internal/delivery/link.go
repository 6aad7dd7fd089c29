package delivery

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrLinkExpired marks a token that was valid once but has aged out.
// The buyer can mint a fresh one with !orders.
var ErrLinkExpired = errors.New("delivery link expired")

// Signer mints delivery links for purchased ebooks. The locator part is
// deterministic per title; the token carries the buyer and an expiry,
// so links can't be guessed from the catalog alone and go stale on
// their own. Repeated confirms mint a fresh token for the same locator.
type Signer struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

func NewSigner(baseURL, secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Slug normalizes a product title into the file name it is stored
// under: lowercase, spaces collapsed to dashes, everything else
// outside [a-z0-9-] dropped.
func Slug(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			b.WriteByte('-')
		}
	}
	return b.String()
}

func (s *Signer) SignedLink(title, buyerID string) (string, error) {
	slug := Slug(title)
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   buyerID,
		"ebook": slug,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign delivery link: %w", err)
	}
	return fmt.Sprintf("%s/files/%s.pdf?token=%s", s.baseURL, slug, tok), nil
}

// Verify checks a link token and returns the buyer and ebook slug it
// was minted for.
func (s *Signer) Verify(token string) (buyerID, slug string, err error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrLinkExpired
		}
		return "", "", fmt.Errorf("invalid delivery token")
	}
	if !tok.Valid {
		return "", "", fmt.Errorf("invalid delivery token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid delivery token")
	}
	buyerID, _ = claims["sub"].(string)
	slug, _ = claims["ebook"].(string)
	if buyerID == "" || slug == "" {
		return "", "", fmt.Errorf("invalid delivery token")
	}
	return buyerID, slug, nil
}
