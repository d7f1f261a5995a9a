package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/rs/zerolog"

	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/validation"
)

// Resolver отдаёт опубликованный гороскоп знака на дату.
type Resolver interface {
	Resolve(ctx context.Context, sign domain.Sign, date string) (domain.Horoscope, error)
}

// PreferencesInput: частичное обновление настроек.
type PreferencesInput struct {
	Timezone     string `json:"timezone"`
	Language     string `json:"language"`
	NotifyDaily  *bool  `json:"notifyDaily"`
	NotifyWeekly *bool  `json:"notifyWeekly"`
}

// ProfileInput: частичное обновление анкеты; nil означает «не менять».
type ProfileInput struct {
	FirstName    *string           `json:"firstName"`
	LastName     *string           `json:"lastName"`
	DateOfBirth  *string           `json:"dateOfBirth"`
	TimeOfBirth  *string           `json:"timeOfBirth"`
	PlaceOfBirth *string           `json:"placeOfBirth"`
	Latitude     *float64          `json:"latitude"`
	Longitude    *float64          `json:"longitude"`
	Gender       *string           `json:"gender"`
	Avatar       *string           `json:"avatar"`
	Preferences  *PreferencesInput `json:"preferences"`
}

// BirthChartInput: данные рождения для пересчёта знака.
type BirthChartInput struct {
	DateOfBirth  string   `json:"dateOfBirth" validate:"required"`
	TimeOfBirth  string   `json:"timeOfBirth" validate:"required"`
	PlaceOfBirth string   `json:"placeOfBirth" validate:"required|maxLen:100"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// BirthChartResult: ответ на обновление данных рождения.
type BirthChartResult struct {
	User                domain.User `json:"user"`
	RecalculationQueued bool        `json:"recalculationQueued"`
}

// Service управляет анкетой пользователя и персональным гороскопом.
type Service struct {
	users    domain.UserRepo
	stats    domain.StatsRepo
	resolver Resolver
	loc      *time.Location
	log      zerolog.Logger
	now      func() time.Time
}

// NewService создаёт сервис профиля. loc задаёт часовой пояс по умолчанию.
func NewService(users domain.UserRepo, stats domain.StatsRepo, resolver Resolver, loc *time.Location, log zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{users: users, stats: stats, resolver: resolver, loc: loc, log: log, now: time.Now}
}

// Get возвращает пользователя.
func (s *Service) Get(ctx context.Context, userID string) (domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile применяет частичное обновление анкеты и настроек.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (domain.User, error) {
	if err := checkProfile(in); err != nil {
		return domain.User{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	p := &user.Profile
	if in.FirstName != nil {
		p.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		p.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.DateOfBirth != nil {
		dob, err := parseBirthDate(*in.DateOfBirth)
		if err != nil {
			return domain.User{}, err
		}
		if changed(p.DateOfBirth, dob) {
			p.DateOfBirth = &dob
			user.BirthChart.SunSign = domain.SunSignFor(dob)
		}
	}
	if in.TimeOfBirth != nil {
		if err := checkBirthTime(*in.TimeOfBirth); err != nil {
			return domain.User{}, err
		}
		p.TimeOfBirth = *in.TimeOfBirth
	}
	if in.PlaceOfBirth != nil {
		p.PlaceOfBirth = strings.TrimSpace(*in.PlaceOfBirth)
	}
	if in.Latitude != nil {
		p.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		p.Longitude = in.Longitude
	}
	if in.Gender != nil {
		switch g := strings.ToLower(*in.Gender); g {
		case "male", "female", "other", "":
			p.Gender = g
		default:
			return domain.User{}, domain.NewValidationError("gender", "gender must be male, female or other")
		}
	}
	if in.Avatar != nil {
		p.Avatar = *in.Avatar
	}
	if prefs := in.Preferences; prefs != nil {
		if prefs.Timezone != "" {
			if _, err := time.LoadLocation(prefs.Timezone); err != nil {
				return domain.User{}, domain.NewValidationError("preferences.timezone", "unknown timezone")
			}
			user.Preferences.Timezone = prefs.Timezone
		}
		if prefs.Language != "" {
			user.Preferences.Language = prefs.Language
		}
		if prefs.NotifyDaily != nil {
			user.Preferences.NotifyDaily = *prefs.NotifyDaily
		}
		if prefs.NotifyWeekly != nil {
			user.Preferences.NotifyWeekly = *prefs.NotifyWeekly
		}
	}

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.stats.IncProfileUpdates(ctx, userID, s.now().UTC()); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("profile update counter failed")
	}
	return saved, nil
}

// UpdateBirthChart сохраняет данные рождения; при смене даты или времени знак пересчитывается.
func (s *Service) UpdateBirthChart(ctx context.Context, userID string, in BirthChartInput) (BirthChartResult, error) {
	v := validate.Struct(&in)
	if !v.Validate() {
		return BirthChartResult{}, domain.NewValidationError("birthChart", "Date of birth, time of birth, and place of birth are required")
	}
	dob, err := parseBirthDate(in.DateOfBirth)
	if err != nil {
		return BirthChartResult{}, err
	}
	if err := checkBirthTime(in.TimeOfBirth); err != nil {
		return BirthChartResult{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return BirthChartResult{}, err
	}
	p := &user.Profile
	dateChanged := changed(p.DateOfBirth, dob)
	timeChanged := p.TimeOfBirth != in.TimeOfBirth

	p.DateOfBirth = &dob
	p.TimeOfBirth = in.TimeOfBirth
	p.PlaceOfBirth = strings.TrimSpace(in.PlaceOfBirth)
	if in.Latitude != nil && in.Longitude != nil {
		p.Latitude, p.Longitude = in.Latitude, in.Longitude
	}
	if dateChanged || timeChanged {
		now := s.now().UTC()
		user.BirthChart.RecalculationQueued = true
		user.BirthChart.SunSign = domain.SunSignFor(dob)
		user.BirthChart.LastCalculated = &now
	}

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return BirthChartResult{}, err
	}
	return BirthChartResult{User: saved, RecalculationQueued: saved.BirthChart.RecalculationQueued}, nil
}

// Daily возвращает гороскоп знака пользователя на сегодня в его часовом поясе и учитывает просмотр.
func (s *Service) Daily(ctx context.Context, userID string) (domain.Horoscope, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && user.Profile.DateOfBirth == nil) {
		return domain.Horoscope{}, &domain.BirthDataError{Message: "User birth date not found. Please update your profile."}
	}
	if err != nil {
		return domain.Horoscope{}, err
	}
	if !user.BirthChart.SunSign.Valid() {
		return domain.Horoscope{}, &domain.BirthDataError{Message: "Sun sign not calculated. Please update your birth details."}
	}

	now := s.now()
	today := domain.DateIn(now, user.Location(s.loc))
	h, err := s.resolver.Resolve(ctx, user.BirthChart.SunSign, today)
	if err != nil {
		return domain.Horoscope{}, err
	}
	if err := s.stats.IncHoroscopeViews(ctx, userID, now.UTC()); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("horoscope view counter failed")
	}
	if err := s.users.TouchLastActive(ctx, userID, now.UTC()); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("touch last active failed")
	}
	return h, nil
}

func parseBirthDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(domain.DateLayout) {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			raw = t.UTC().Format(domain.DateLayout)
		}
	}
	t, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError("dateOfBirth", "dateOfBirth must be in YYYY-MM-DD format")
	}
	return t, nil
}

func checkBirthTime(raw string) error {
	if _, err := time.Parse("15:04", raw); err != nil {
		return domain.NewValidationError("timeOfBirth", "timeOfBirth must be in HH:MM format")
	}
	return nil
}

func changed(prev *time.Time, next time.Time) bool {
	return prev == nil || !prev.Equal(next)
}

// profileRules ограничивают длину текстовых полей анкеты.
var profileRules = validate.MS{
	"firstName":    "maxLen:50",
	"lastName":     "maxLen:50",
	"placeOfBirth": "maxLen:100",
	"avatar":       "maxLen:500",
}

// checkProfile проверяет только переданные поля.
func checkProfile(in ProfileInput) error {
	data := map[string]any{}
	for field, value := range map[string]*string{
		"firstName":    in.FirstName,
		"lastName":     in.LastName,
		"placeOfBirth": in.PlaceOfBirth,
		"avatar":       in.Avatar,
	} {
		if value != nil {
			data[field] = strings.TrimSpace(*value)
		}
	}
	if len(data) == 0 {
		return nil
	}
	v := validate.Map(data)
	v.StringRules(profileRules)
	return validation.Check(v)
}
