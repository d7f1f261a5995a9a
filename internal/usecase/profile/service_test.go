package profile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horoscope-hub/internal/domain"
)

type stubUsers struct {
	users map[string]domain.User
	saves int
}

func (r *stubUsers) UpsertVerified(context.Context, string, time.Time) (domain.User, bool, error) {
	return domain.User{}, false, errors.New("not used")
}

func (r *stubUsers) GetByID(_ context.Context, id string) (domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, &domain.NotFoundError{Message: "User not found"}
	}
	return u, nil
}

func (r *stubUsers) Save(_ context.Context, u domain.User) (domain.User, error) {
	r.saves++
	r.users[u.ID] = u
	return u, nil
}

func (r *stubUsers) TouchLastActive(context.Context, string, time.Time) error { return nil }

func (r *stubUsers) List(context.Context, domain.UserQuery) ([]domain.User, int, error) {
	return nil, 0, nil
}

func (r *stubUsers) Counts(context.Context, time.Time, time.Time) (domain.UserCounts, error) {
	return domain.UserCounts{}, nil
}

type stubStats struct {
	views, updates int
	err            error
}

func (s *stubStats) IncHoroscopeViews(context.Context, string, time.Time) error {
	s.views++
	return s.err
}

func (s *stubStats) IncProfileUpdates(context.Context, string, time.Time) error {
	s.updates++
	return s.err
}

func (s *stubStats) Get(_ context.Context, id string) (domain.UsageStats, error) {
	return domain.UsageStats{UserID: id}, nil
}

func (s *stubStats) ViewsOn(context.Context, time.Time) (int64, error) { return 0, nil }

type stubResolver struct {
	sign domain.Sign
	date string
}

func (r *stubResolver) Resolve(_ context.Context, sign domain.Sign, date string) (domain.Horoscope, error) {
	r.sign, r.date = sign, date
	return domain.Horoscope{Sign: sign, Date: date, Published: true}, nil
}

func newService(u domain.User) (*Service, *stubUsers, *stubStats, *stubResolver) {
	users := &stubUsers{users: map[string]domain.User{u.ID: u}}
	stats := &stubStats{}
	res := &stubResolver{}
	svc := NewService(users, stats, res, time.UTC, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, 1, 14, 20, 0, 0, 0, time.UTC) }
	return svc, users, stats, res
}

func strp(s string) *string { return &s }

func TestUpdateBirthChartRecalculatesSign(t *testing.T) {
	svc, _, _, _ := newService(domain.User{ID: "u1"})
	ctx := context.Background()

	res, err := svc.UpdateBirthChart(ctx, "u1", BirthChartInput{DateOfBirth: "1990-08-10", TimeOfBirth: "06:30", PlaceOfBirth: "Mumbai"})
	require.NoError(t, err)
	assert.True(t, res.RecalculationQueued)
	assert.Equal(t, domain.Leo, res.User.BirthChart.SunSign)
	assert.Equal(t, "Mumbai", res.User.Profile.PlaceOfBirth)
}

func TestUpdateBirthChartUnchangedKeepsFlag(t *testing.T) {
	dob := time.Date(1990, 8, 10, 0, 0, 0, 0, time.UTC)
	svc, _, _, _ := newService(domain.User{
		ID:         "u1",
		Profile:    domain.Profile{DateOfBirth: &dob, TimeOfBirth: "06:30"},
		BirthChart: domain.BirthChart{SunSign: domain.Leo},
	})
	res, err := svc.UpdateBirthChart(context.Background(), "u1", BirthChartInput{DateOfBirth: "1990-08-10", TimeOfBirth: "06:30", PlaceOfBirth: "Pune"})
	require.NoError(t, err)
	assert.False(t, res.RecalculationQueued, "без смены даты и времени пересчёт не нужен")
	assert.Equal(t, "Pune", res.User.Profile.PlaceOfBirth)
}

func TestUpdateBirthChartValidation(t *testing.T) {
	svc, users, _, _ := newService(domain.User{ID: "u1"})
	ctx := context.Background()
	cases := []BirthChartInput{
		{TimeOfBirth: "06:30", PlaceOfBirth: "Mumbai"},
		{DateOfBirth: "1990-08-10", PlaceOfBirth: "Mumbai"},
		{DateOfBirth: "1990-08-10", TimeOfBirth: "06:30"},
		{DateOfBirth: "10/08/1990", TimeOfBirth: "06:30", PlaceOfBirth: "Mumbai"},
		{DateOfBirth: "1990-08-10", TimeOfBirth: "6.30am", PlaceOfBirth: "Mumbai"},
	}
	for _, in := range cases {
		_, err := svc.UpdateBirthChart(ctx, "u1", in)
		assert.ErrorIs(t, err, domain.ErrValidation, "вход %+v", in)
	}
	assert.Zero(t, users.saves)
}

func TestUpdateProfileCountsUpdates(t *testing.T) {
	svc, _, stats, _ := newService(domain.User{ID: "u1", Preferences: domain.DefaultPreferences()})
	ctx := context.Background()

	daily := false
	u, err := svc.UpdateProfile(ctx, "u1", ProfileInput{
		FirstName:   strp("Asha"),
		DateOfBirth: strp("1992-03-25"),
		Preferences: &PreferencesInput{Timezone: "Europe/London", NotifyDaily: &daily},
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha", u.Profile.FirstName)
	assert.Equal(t, domain.Aries, u.BirthChart.SunSign)
	assert.Equal(t, "Europe/London", u.Preferences.Timezone)
	assert.False(t, u.Preferences.NotifyDaily)
	assert.Equal(t, 1, stats.updates)

	_, err = svc.UpdateProfile(ctx, "u1", ProfileInput{Preferences: &PreferencesInput{Timezone: "Mars/Olympus"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.UpdateProfile(ctx, "missing", ProfileInput{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateProfileLengthLimits(t *testing.T) {
	svc, users, _, _ := newService(domain.User{ID: "u1"})
	ctx := context.Background()
	cases := []struct {
		field string
		in    ProfileInput
	}{
		{"firstName", ProfileInput{FirstName: strp(strings.Repeat("a", 51))}},
		{"lastName", ProfileInput{LastName: strp(strings.Repeat("b", 51))}},
		{"placeOfBirth", ProfileInput{PlaceOfBirth: strp(strings.Repeat("c", 101))}},
		{"firstName", ProfileInput{FirstName: strp(strings.Repeat("a", 51)), LastName: strp(strings.Repeat("b", 51))}},
	}
	for _, tc := range cases {
		_, err := svc.UpdateProfile(ctx, "u1", tc.in)
		require.ErrorIs(t, err, domain.ErrValidation, "поле %s", tc.field)
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, tc.field, verr.Field)
	}
	assert.Zero(t, users.saves)

	_, err := svc.UpdateProfile(ctx, "u1", ProfileInput{FirstName: strp(strings.Repeat("a", 50)), PlaceOfBirth: strp("Mumbai")})
	assert.NoError(t, err)
}

func TestUpdateProfileStatsFailureIsLogged(t *testing.T) {
	svc, _, stats, _ := newService(domain.User{ID: "u1"})
	stats.err = errors.New("pg down")
	_, err := svc.UpdateProfile(context.Background(), "u1", ProfileInput{LastName: strp("Rao")})
	require.NoError(t, err)
}

func TestDailyUsesUserTimezone(t *testing.T) {
	dob := time.Date(1990, 8, 10, 0, 0, 0, 0, time.UTC)
	svc, _, stats, res := newService(domain.User{
		ID:          "u1",
		Profile:     domain.Profile{DateOfBirth: &dob},
		BirthChart:  domain.BirthChart{SunSign: domain.Leo},
		Preferences: domain.Preferences{Timezone: "Asia/Kolkata"},
	})
	h, err := svc.Daily(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.Leo, h.Sign)
	assert.Equal(t, "2025-01-15", res.date, "20:00 UTC это уже 15 января в Asia/Kolkata")
	assert.Equal(t, 1, stats.views)
}

func TestDailyRequiresBirthData(t *testing.T) {
	svc, _, stats, _ := newService(domain.User{ID: "u1"})
	_, err := svc.Daily(context.Background(), "u1")
	require.ErrorIs(t, err, domain.ErrBirthDataRequired)
	assert.Zero(t, stats.views)

	dob := time.Date(1990, 8, 10, 0, 0, 0, 0, time.UTC)
	svc, _, _, _ = newService(domain.User{ID: "u2", Profile: domain.Profile{DateOfBirth: &dob}})
	_, err = svc.Daily(context.Background(), "u2")
	require.ErrorIs(t, err, domain.ErrBirthDataRequired)
	assert.Contains(t, err.Error(), "Sun sign not calculated")
}
