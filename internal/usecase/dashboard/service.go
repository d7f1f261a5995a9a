package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"horoscope-hub/internal/domain"
)

const (
	recentUsersLimit = 10
	summaryDays      = 7
)

// Stats: счётчики дашборда.
type Stats struct {
	domain.UserCounts
	TodayHoroscopeViews int64 `json:"todayHoroscopeViews"`
}

// Overview: ответ дашборда.
type Overview struct {
	Stats          Stats              `json:"stats"`
	RecentUsers    []domain.User      `json:"recentUsers"`
	HoroscopeStats []domain.DateCount `json:"horoscopeStats"`
}

// UserDetails: пользователь вместе со счётчиками активности.
type UserDetails struct {
	User  domain.User       `json:"user"`
	Stats domain.UsageStats `json:"stats"`
}

// Service собирает агрегаты для админки.
type Service struct {
	users   domain.UserRepo
	stats   domain.StatsRepo
	content domain.HoroscopeStore
	loc     *time.Location
	now     func() time.Time
}

// NewService создаёт сервис дашборда.
func NewService(users domain.UserRepo, stats domain.StatsRepo, content domain.HoroscopeStore, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{users: users, stats: stats, content: content, loc: loc, now: time.Now}
}

// Overview считает счётчики пользователей, просмотры за сегодня и наполнение контента за неделю.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	now := s.now().In(s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	today := now.Format(domain.DateLayout)
	from := dayStart.AddDate(0, 0, -summaryDays).Format(domain.DateLayout)

	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.users.Counts(gctx, dayStart, now.Add(-24*time.Hour))
		if err != nil {
			return fmt.Errorf("user counts: %w", err)
		}
		out.Stats.UserCounts = counts
		return nil
	})
	g.Go(func() error {
		views, err := s.stats.ViewsOn(gctx, dayStart)
		if err != nil {
			return fmt.Errorf("views: %w", err)
		}
		out.Stats.TodayHoroscopeViews = views
		return nil
	})
	g.Go(func() error {
		recent, _, err := s.users.List(gctx, domain.UserQuery{Page: 1, Limit: recentUsersLimit})
		if err != nil {
			return fmt.Errorf("recent users: %w", err)
		}
		out.RecentUsers = recent
		return nil
	})
	g.Go(func() error {
		summary, err := s.content.DateSummary(gctx, from, today)
		if err != nil {
			return fmt.Errorf("content summary: %w", err)
		}
		out.HoroscopeStats = summary
		return nil
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	if out.RecentUsers == nil {
		out.RecentUsers = []domain.User{}
	}
	if out.HoroscopeStats == nil {
		out.HoroscopeStats = []domain.DateCount{}
	}
	return out, nil
}

// Users возвращает страницу пользователей.
func (s *Service) Users(ctx context.Context, q domain.UserQuery) ([]domain.User, domain.Pagination, error) {
	norm := domain.HoroscopeQuery{Page: q.Page, Limit: q.Limit}.Normalize()
	q.Page, q.Limit = norm.Page, norm.Limit
	users, total, err := s.users.List(ctx, q)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, domain.NewPagination(q.Page, q.Limit, total), nil
}

// User возвращает пользователя и его счётчики.
func (s *Service) User(ctx context.Context, id string) (UserDetails, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return UserDetails{}, err
	}
	stats, err := s.stats.Get(ctx, id)
	if err != nil {
		return UserDetails{}, err
	}
	return UserDetails{User: user, Stats: stats}, nil
}
