package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/metrics"
)

const (
	otpCodePrefix     = "otp:code:"
	otpAttemptsPrefix = "otp:attempts:"
)

// Config задаёт параметры входа.
type Config struct {
	OTPTTL        time.Duration
	MaxAttempts   int
	DummyCode     string
	Dev           bool
	Provider      string
	AdminUsername string
	AdminHash     string
}

// SendResult: ответ на запрос кода.
type SendResult struct {
	PhoneNumber string `json:"phoneNumber"`
	ExpiresIn   int64  `json:"expiresIn"`
	OTP         string `json:"otp,omitempty"`
}

// VerifyResult: ответ на успешную проверку кода.
type VerifyResult struct {
	User      domain.User `json:"user"`
	Tokens    TokenPair   `json:"tokens"`
	IsNewUser bool        `json:"isNewUser"`
}

// AdminInfo описывает администратора в ответе на вход.
type AdminInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	Role     string `json:"role"`
}

// AdminLoginResult: ответ на вход администратора.
type AdminLoginResult struct {
	Admin  AdminInfo `json:"admin"`
	Tokens TokenPair `json:"tokens"`
}

// Service реализует вход по одноразовому коду и выдачу токенов.
type Service struct {
	users  domain.UserRepo
	kv     domain.KV
	sender domain.OTPSender
	tokens *Tokens
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time
	code   func() (string, error)
}

// NewService создаёт сервис аутентификации.
func NewService(users domain.UserRepo, kv domain.KV, sender domain.OTPSender, tokens *Tokens, cfg Config, log zerolog.Logger) *Service {
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 5 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	s := &Service{users: users, kv: kv, sender: sender, tokens: tokens, cfg: cfg, log: log, now: time.Now}
	s.code = s.generateCode
	return s
}

func (s *Service) generateCode() (string, error) {
	if s.cfg.Dev && s.cfg.DummyCode != "" {
		return s.cfg.DummyCode, nil
	}
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// SendOTP выдаёт код, если для номера нет действующего.
func (s *Service) SendOTP(ctx context.Context, rawPhone string) (SendResult, error) {
	if strings.TrimSpace(rawPhone) == "" {
		return SendResult{}, domain.NewValidationError("phoneNumber", "Phone number is required")
	}
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return SendResult{}, err
	}
	code, err := s.code()
	if err != nil {
		return SendResult{}, fmt.Errorf("generate otp: %w", err)
	}

	key := otpCodePrefix + phone
	sent, err := s.kv.Once(ctx, key, []byte(code), s.cfg.OTPTTL, func() error {
		_, err := s.sender.SendOTP(ctx, phone, code)
		return err
	})
	if err != nil {
		metrics.OTPSent.WithLabelValues(s.cfg.Provider, "error").Inc()
		s.log.Error().Err(err).Str("phone", phone).Msg("otp send failed")
		if errors.Is(err, domain.ErrOTPDelivery) {
			return SendResult{}, err
		}
		return SendResult{}, fmt.Errorf("%w: %w", domain.ErrOTPDelivery, err)
	}
	if !sent {
		metrics.OTPSent.WithLabelValues(s.cfg.Provider, "cooldown").Inc()
		left, err := s.kv.TTL(ctx, key)
		if err != nil {
			left = s.cfg.OTPTTL
		}
		return SendResult{}, &domain.CooldownError{SecondsLeft: int(math.Ceil(left.Seconds()))}
	}
	metrics.OTPSent.WithLabelValues(s.cfg.Provider, "success").Inc()
	if err := s.kv.Del(ctx, otpAttemptsPrefix+phone); err != nil {
		s.log.Warn().Err(err).Str("phone", phone).Msg("reset otp attempts failed")
	}

	res := SendResult{PhoneNumber: phone, ExpiresIn: s.cfg.OTPTTL.Milliseconds()}
	if s.cfg.Dev {
		res.OTP = code
	}
	return res, nil
}

// VerifyOTP проверяет код, создаёт пользователя при первом входе и выдаёт токены.
func (s *Service) VerifyOTP(ctx context.Context, rawPhone, code string) (VerifyResult, error) {
	if strings.TrimSpace(rawPhone) == "" || strings.TrimSpace(code) == "" {
		return VerifyResult{}, domain.NewValidationError("otp", "Phone number and OTP are required")
	}
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return VerifyResult{}, err
	}

	codeKey := otpCodePrefix + phone
	stored, err := s.kv.Get(ctx, codeKey)
	if errors.Is(err, domain.ErrCacheMiss) {
		return VerifyResult{}, domain.ErrOTPInvalid
	}
	if err != nil {
		return VerifyResult{}, fmt.Errorf("load otp: %w", err)
	}

	attemptsKey := otpAttemptsPrefix + phone
	attempts, err := s.kv.Incr(ctx, attemptsKey, s.cfg.OTPTTL)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("count otp attempts: %w", err)
	}
	if attempts > int64(s.cfg.MaxAttempts) {
		return VerifyResult{}, domain.ErrOTPAttempts
	}
	if subtle.ConstantTimeCompare(stored, []byte(strings.TrimSpace(code))) != 1 {
		return VerifyResult{}, domain.ErrOTPInvalid
	}
	if err := s.kv.Del(ctx, codeKey, attemptsKey); err != nil {
		s.log.Warn().Err(err).Str("phone", phone).Msg("consume otp failed")
	}

	user, created, err := s.users.UpsertVerified(ctx, phone, s.now().UTC())
	if err != nil {
		return VerifyResult{}, err
	}
	pair, err := s.tokens.Issue(ctx, user.ID, user.PhoneNumber, user.IsAdmin)
	if err != nil {
		return VerifyResult{}, err
	}
	s.log.Info().Str("user_id", user.ID).Bool("new", created).Msg("user verified")
	return VerifyResult{User: user, Tokens: pair, IsNewUser: created}, nil
}

// Refresh обменивает refresh-токен на новую пару.
func (s *Service) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	if strings.TrimSpace(raw) == "" {
		return TokenPair{}, domain.NewValidationError("refreshToken", "Refresh token is required")
	}
	pair, claims, err := s.tokens.Rotate(ctx, raw, func(c *Claims) error {
		if c.IsAdmin && c.UserID == AdminSubjectID {
			return nil
		}
		user, err := s.users.GetByID(ctx, c.UserID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && !user.IsActive) {
			return fmt.Errorf("%w: user is not active", domain.ErrUnauthorized)
		}
		return err
	})
	if err != nil {
		return TokenPair{}, err
	}
	if claims.UserID != AdminSubjectID {
		if err := s.users.TouchLastActive(ctx, claims.UserID, s.now().UTC()); err != nil {
			s.log.Warn().Err(err).Str("user_id", claims.UserID).Msg("touch last active failed")
		}
	}
	return pair, nil
}

// Logout отзывает refresh-токен. Ошибки не возвращаются клиенту.
func (s *Service) Logout(ctx context.Context, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	if err := s.tokens.Revoke(ctx, raw); err != nil {
		s.log.Warn().Err(err).Msg("logout revoke failed")
	}
}

// AdminLogin проверяет учётные данные администратора по bcrypt-хэшу.
func (s *Service) AdminLogin(ctx context.Context, username, password string) (AdminLoginResult, error) {
	if username == "" || password == "" {
		return AdminLoginResult{}, domain.NewValidationError("username", "Username and password are required")
	}
	if s.cfg.AdminHash == "" {
		s.log.Warn().Msg("admin login attempted but ADMIN_PASSWORD_HASH is empty")
		return AdminLoginResult{}, fmt.Errorf("%w: admin login disabled", domain.ErrUnauthorized)
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.AdminUsername)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminHash), []byte(password))
	if !userOK || passErr != nil {
		return AdminLoginResult{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	pair, err := s.tokens.Issue(ctx, AdminSubjectID, "", true)
	if err != nil {
		return AdminLoginResult{}, err
	}
	return AdminLoginResult{
		Admin:  AdminInfo{ID: AdminSubjectID, Username: s.cfg.AdminUsername, IsAdmin: true, Role: "admin"},
		Tokens: pair,
	}, nil
}
