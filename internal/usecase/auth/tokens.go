package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"horoscope-hub/internal/domain"
)

// AdminSubjectID: идентификатор субъекта в админских токенах.
const AdminSubjectID = "admin"

const refreshKeyPrefix = "refresh:"

// Claims: полезная нагрузка access- и refresh-токенов.
type Claims struct {
	UserID      string `json:"userId"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	IsAdmin     bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// TokenPair: выданная пара токенов.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// TokenConfig задаёт секреты и сроки жизни токенов.
type TokenConfig struct {
	Secret        string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Tokens выпускает и проверяет JWT. Действующие refresh-токены хранятся в KV по jti.
type Tokens struct {
	cfg TokenConfig
	kv  domain.KV
	now func() time.Time
}

// NewTokens создаёт выпускающего токены.
func NewTokens(cfg TokenConfig, kv domain.KV) *Tokens {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Tokens{cfg: cfg, kv: kv, now: time.Now}
}

// Issue выпускает пару токенов и регистрирует refresh-сессию.
func (t *Tokens) Issue(ctx context.Context, userID, phone string, isAdmin bool) (TokenPair, error) {
	now := t.now()
	access := Claims{
		UserID:      userID,
		PhoneNumber: phone,
		IsAdmin:     isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.AccessTTL)),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString([]byte(t.cfg.Secret))
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	jti := uuid.NewString()
	refresh := access
	refresh.RegisteredClaims = jwt.RegisteredClaims{
		ID:        jti,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.RefreshTTL)),
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString([]byte(t.cfg.RefreshSecret))
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := t.kv.Set(ctx, refreshKeyPrefix+jti, []byte(userID), t.cfg.RefreshTTL); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh session: %w", err)
	}
	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(t.cfg.AccessTTL.Seconds()),
	}, nil
}

// ParseAccess проверяет access-токен.
func (t *Tokens) ParseAccess(raw string) (*Claims, error) {
	return t.parse(raw, t.cfg.Secret)
}

// ParseRefresh проверяет подпись и срок refresh-токена, не обращаясь к KV.
func (t *Tokens) ParseRefresh(raw string) (*Claims, error) {
	claims, err := t.parse(raw, t.cfg.RefreshSecret)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: refresh token without jti", domain.ErrUnauthorized)
	}
	return claims, nil
}

// Rotate отзывает refresh-токен и выпускает новую пару. Повторное использование токена отклоняется.
func (t *Tokens) Rotate(ctx context.Context, raw string, check func(*Claims) error) (TokenPair, *Claims, error) {
	claims, err := t.ParseRefresh(raw)
	if err != nil {
		return TokenPair{}, nil, err
	}
	key := refreshKeyPrefix + claims.ID
	owner, err := t.kv.Get(ctx, key)
	if errors.Is(err, domain.ErrCacheMiss) || (err == nil && string(owner) != claims.UserID) {
		return TokenPair{}, nil, fmt.Errorf("%w: refresh session revoked", domain.ErrUnauthorized)
	}
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("load refresh session: %w", err)
	}
	if check != nil {
		if err := check(claims); err != nil {
			return TokenPair{}, nil, err
		}
	}
	if err := t.kv.Del(ctx, key); err != nil {
		return TokenPair{}, nil, fmt.Errorf("revoke refresh session: %w", err)
	}
	pair, err := t.Issue(ctx, claims.UserID, claims.PhoneNumber, claims.IsAdmin)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, claims, nil
}

// Revoke снимает refresh-сессию. Невалидный токен игнорируется.
func (t *Tokens) Revoke(ctx context.Context, raw string) error {
	claims, err := t.ParseRefresh(raw)
	if err != nil {
		return nil
	}
	return t.kv.Del(ctx, refreshKeyPrefix+claims.ID)
}

func (t *Tokens) parse(raw, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	return claims, nil
}
