package horoscope

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
	"horoscope-hub/internal/infra/cache"
)

const testDate = "2025-01-15"

func fullSections() domain.Sections {
	s := domain.Sections{}
	for _, k := range domain.SectionKeys {
		s[k] = domain.Section{Title: string(k), Text: "text for " + string(k)}
	}
	return s
}

func input(sign, date string, published bool) UpsertInput {
	return UpsertInput{
		Date:             date,
		Sign:             sign,
		Summary:          "A bright day",
		NotificationText: "Your stars are aligned",
		Sections:         fullSections(),
		MoodRatings:      domain.MoodRatings{Energy: 4, Love: 3, Work: 3, Luck: 2},
		Published:        published,
	}
}

type fixture struct {
	store    *memStore
	cache    domain.HoroscopeCache
	queue    *recordQueue
	admin    *Admin
	resolver *Resolver
}

func newFixture(c domain.HoroscopeCache) fixture {
	store := newMemStore()
	if c == nil {
		c = cache.NewMemory(16, cache.DefaultTTL)
	}
	queue := &recordQueue{}
	return fixture{
		store:    store,
		cache:    c,
		queue:    queue,
		admin:    NewAdmin(store, c, queue, zerolog.Nop()),
		resolver: NewResolver(store, c, time.UTC, zerolog.Nop()),
	}
}

func TestPublishScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)

	saved, err := f.admin.Upsert(ctx, "admin", input("Aries", testDate, true))
	require.NoError(t, err)

	got, err := f.resolver.ResolvePublic(ctx, "Aries", testDate)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)

	_, err = f.admin.ClearCache(ctx, testDate, "")
	require.NoError(t, err)
	got, err = f.resolver.ResolvePublic(ctx, "Aries", testDate)
	require.NoError(t, err, "после сброса кэша запись должна читаться из хранилища")
	assert.Equal(t, saved.ID, got.ID)

	_, err = f.admin.SetPublished(ctx, saved.ID, false)
	require.NoError(t, err)
	_, err = f.resolver.ResolvePublic(ctx, "Aries", testDate)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "Horoscope not available for Aries on 2025-01-15")
}

func TestResolveReadThrough(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	_, _, err := f.store.Upsert(ctx, domain.Horoscope{Sign: domain.Leo, Date: testDate, Sections: fullSections(), Published: true})
	require.NoError(t, err)

	_, err = f.resolver.ResolvePublic(ctx, "Leo", testDate)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.findPublishedCalls)

	_, err = f.resolver.ResolvePublic(ctx, "leo", testDate)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.findPublishedCalls, "второй запрос должен обслуживаться кэшем")
}

func TestResolveInvalidSign(t *testing.T) {
	f := newFixture(nil)
	_, err := f.resolver.ResolvePublic(context.Background(), "Ophiuchus", testDate)
	require.ErrorIs(t, err, domain.ErrInvalidSign)
	assert.Zero(t, f.store.findPublishedCalls)
}

func TestResolveBadDate(t *testing.T) {
	f := newFixture(nil)
	_, err := f.resolver.ResolvePublic(context.Background(), "Aries", "15-01-2025")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestResolveDraftIsNotPublic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	_, err := f.admin.Upsert(ctx, "admin", input("Virgo", testDate, false))
	require.NoError(t, err)

	_, err = f.resolver.ResolvePublic(ctx, "Virgo", testDate)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveDefaultsToToday(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	f.resolver.loc = ist
	f.resolver.now = func() time.Time { return time.Date(2025, 1, 14, 20, 0, 0, 0, time.UTC) }

	_, err = f.admin.Upsert(ctx, "admin", input("Aries", "2025-01-15", true))
	require.NoError(t, err)

	got, err := f.resolver.ResolvePublic(ctx, "Aries", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15", got.Date, "20:00 UTC это уже следующий день в Asia/Kolkata")
}

func TestUpsertKeepsSingleRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	var first domain.Horoscope
	for i := 0; i < 5; i++ {
		in := input("Taurus", testDate, true)
		in.Summary = "version " + string(rune('A'+i))
		saved, err := f.admin.Upsert(ctx, "admin", in)
		require.NoError(t, err)
		if i == 0 {
			first = saved
		}
		assert.Equal(t, first.ID, saved.ID)
	}
	assert.Equal(t, 1, f.store.count())

	got, err := f.resolver.ResolvePublic(ctx, "Taurus", testDate)
	require.NoError(t, err)
	assert.Equal(t, "version E", got.Summary, "кэш должен отдавать последнюю версию")
}

func TestUpsertStampsAdminMetadata(t *testing.T) {
	f := newFixture(nil)
	saved, err := f.admin.Upsert(context.Background(), "admin-42", input("Gemini", testDate, false))
	require.NoError(t, err)
	meta := saved.GenerationMetadata
	assert.Equal(t, domain.EngineAdminManual, meta.Engine)
	assert.Equal(t, "admin-42", meta.CreatedBy)
	assert.Equal(t, domain.TemplateVersion, meta.TemplateVersion)
	assert.InDelta(t, 1.0, meta.ConfidenceScore, 1e-9)
	assert.Equal(t, domain.DefaultTimezone, saved.Timezone)
	assert.Equal(t, domain.DefaultLocale, saved.Locale)
}

func TestUpsertDraftInvalidatesCachedEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	_, err := f.admin.Upsert(ctx, "admin", input("Cancer", testDate, true))
	require.NoError(t, err)
	_, err = f.cache.Get(ctx, domain.Cancer, testDate)
	require.NoError(t, err)

	_, err = f.admin.Upsert(ctx, "admin", input("Cancer", testDate, false))
	require.NoError(t, err)
	_, err = f.cache.Get(ctx, domain.Cancer, testDate)
	assert.ErrorIs(t, err, domain.ErrCacheMiss, "черновик не должен оставаться в кэше")
}

func TestUpsertValidation(t *testing.T) {
	cases := []struct {
		name string
		in   func() UpsertInput
		want error
	}{
		{"нет даты", func() UpsertInput { return input("Aries", "", true) }, domain.ErrValidation},
		{"нет знака", func() UpsertInput { return input("", testDate, true) }, domain.ErrValidation},
		{"неизвестный знак", func() UpsertInput { return input("Dragon", testDate, true) }, domain.ErrInvalidSign},
		{"плохая дата", func() UpsertInput { return input("Aries", "2025/01/15", true) }, domain.ErrValidation},
		{"нет разделов", func() UpsertInput {
			in := input("Aries", testDate, true)
			in.Sections = nil
			return in
		}, domain.ErrValidation},
		{"не все разделы", func() UpsertInput {
			in := input("Aries", testDate, true)
			delete(in.Sections, domain.SectionHealth)
			return in
		}, domain.ErrValidation},
		{"длинное уведомление", func() UpsertInput {
			in := input("Aries", testDate, true)
			in.NotificationText = strings.Repeat("x", 81)
			return in
		}, domain.ErrValidation},
		{"настроение вне шкалы", func() UpsertInput {
			in := input("Aries", testDate, true)
			in.MoodRatings.Luck = 7
			return in
		}, domain.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(nil)
			_, err := f.admin.Upsert(context.Background(), "admin", tc.in())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "ожидали %v, получили %v", tc.want, err)
			assert.Zero(t, f.store.count(), "невалидная запись не должна попасть в хранилище")
		})
	}
}

func TestUpsertValidationMessageIsStable(t *testing.T) {
	f := newFixture(nil)
	in := input("", "", true)
	in.Theme = strings.Repeat("t", 51)
	in.NotificationText = strings.Repeat("x", 81)
	for i := 0; i < 30; i++ {
		_, err := f.admin.Upsert(context.Background(), "admin", in)
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr), "ожидали ошибку валидации, получили %v", err)
		assert.True(t, strings.EqualFold(verr.Field, "date"), "попытка %d: поле %q", i, verr.Field)
	}
}

func TestStoreFailureSkipsCacheWrite(t *testing.T) {
	ctx := context.Background()
	c := &brokenCache{}
	f := newFixture(c)
	f.store.failWrites = errors.New("db down")

	_, err := f.admin.Upsert(ctx, "admin", input("Libra", testDate, true))
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Zero(t, c.sets)
	assert.Empty(t, f.queue.jobs)
}

func TestCacheFailureIsAbsorbed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(&brokenCache{})

	saved, err := f.admin.Upsert(ctx, "admin", input("Scorpio", testDate, true))
	require.NoError(t, err, "сбой кэша после записи не должен ронять операцию")

	got, err := f.resolver.ResolvePublic(ctx, "Scorpio", testDate)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)

	all, err := f.resolver.ResolveAll(ctx, testDate)
	require.NoError(t, err)
	assert.Equal(t, []domain.Sign{domain.Scorpio}, all.AvailableSigns)

	_, err = f.admin.SetPublished(ctx, saved.ID, false)
	require.NoError(t, err)
	require.NoError(t, f.admin.Delete(ctx, saved.ID))
}

func TestClearCacheSurfacesCacheFailure(t *testing.T) {
	f := newFixture(&brokenCache{})
	_, err := f.admin.ClearCache(context.Background(), "", "")
	require.ErrorIs(t, err, domain.ErrCacheUnavailable)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	require.ErrorIs(t, f.admin.Delete(ctx, 99), domain.ErrNotFound)

	saved, err := f.admin.Upsert(ctx, "admin", input("Pisces", testDate, true))
	require.NoError(t, err)
	require.NoError(t, f.admin.Delete(ctx, saved.ID))

	_, err = f.cache.Get(ctx, domain.Pisces, testDate)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	_, err = f.resolver.ResolvePublic(ctx, "Pisces", testDate)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetPublishedUnknown(t *testing.T) {
	f := newFixture(nil)
	_, err := f.admin.SetPublished(context.Background(), 7, true)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPublishQueuesNotification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	saved, err := f.admin.Upsert(ctx, "admin", input("Aquarius", testDate, false))
	require.NoError(t, err)
	assert.Empty(t, f.queue.jobs, "черновик не рассылается")

	_, err = f.admin.SetPublished(ctx, saved.ID, true)
	require.NoError(t, err)
	require.Len(t, f.queue.jobs, 1)
	job := f.queue.jobs[0]
	assert.Equal(t, domain.Aquarius, job.Sign)
	assert.Equal(t, testDate, job.Date)
	assert.Equal(t, "Your stars are aligned", job.Text)

	got, err := f.cache.Get(ctx, domain.Aquarius, testDate)
	require.NoError(t, err, "публикация должна заполнить кэш")
	assert.True(t, got.Published)
}

func TestNotificationOnlyOnTransitionToPublished(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)

	saved, err := f.admin.Upsert(ctx, "admin", input("Aries", testDate, true))
	require.NoError(t, err)
	_, err = f.admin.Upsert(ctx, "admin", input("Aries", testDate, true))
	require.NoError(t, err)
	_, err = f.admin.SetPublished(ctx, saved.ID, true)
	require.NoError(t, err)
	require.Len(t, f.queue.jobs, 1, "правка и повторная публикация живой записи не рассылаются")

	_, err = f.admin.SetPublished(ctx, saved.ID, false)
	require.NoError(t, err)
	_, err = f.admin.Upsert(ctx, "admin", input("Aries", testDate, true))
	require.NoError(t, err)
	assert.Len(t, f.queue.jobs, 2, "снятие и новая публикация дают одну новую рассылку")
}

func TestResolveAllPartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	for _, s := range []string{"Aries", "Leo"} {
		_, _, err := f.store.Upsert(ctx, domain.Horoscope{Sign: domain.Sign(s), Date: testDate, Sections: fullSections(), Published: true})
		require.NoError(t, err)
	}
	_, _, err := f.store.Upsert(ctx, domain.Horoscope{Sign: domain.Virgo, Date: testDate, Sections: fullSections()})
	require.NoError(t, err)

	res, err := f.resolver.ResolveAll(ctx, testDate)
	require.NoError(t, err)
	assert.Equal(t, testDate, res.Date)
	assert.Equal(t, []domain.Sign{domain.Aries, domain.Leo}, res.AvailableSigns)
	assert.Len(t, res.MissingSigns, 10)
	assert.Contains(t, res.MissingSigns, domain.Virgo)
	assert.Equal(t, 1, f.store.batchCalls)
	assert.Len(t, f.store.lastBatch, 12)

	_, err = f.resolver.ResolveAll(ctx, testDate)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.batchCalls)
	assert.Len(t, f.store.lastBatch, 10, "закэшированные знаки не должны запрашиваться повторно")
}

func TestResolveAdminOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	for _, d := range []string{"2025-01-14", "2025-01-15"} {
		for _, s := range []domain.Sign{domain.Taurus, domain.Aries, domain.Gemini} {
			_, _, err := f.store.Upsert(ctx, domain.Horoscope{Sign: s, Date: d, Sections: fullSections()})
			require.NoError(t, err)
		}
	}

	page, err := f.resolver.ResolveAdmin(ctx, domain.HoroscopeQuery{Date: "2025-01-15"})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, domain.Aries, page.Items[0].Sign)
	assert.Equal(t, domain.Taurus, page.Items[2].Sign)
	assert.Equal(t, 3, page.Pagination.Total)

	page, err = f.resolver.ResolveAdmin(ctx, domain.HoroscopeQuery{Limit: 2, Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "2025-01-15", page.Items[0].Date)
	assert.Equal(t, domain.Aries, page.Items[0].Sign)
	assert.Equal(t, domain.Gemini, page.Items[1].Sign)
	assert.Equal(t, 6, page.Pagination.Total, "total не зависит от limit")
	assert.Equal(t, 3, page.Pagination.Pages)
}

func TestClearCacheDispatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	for _, d := range []string{"2025-01-14", testDate} {
		for _, s := range []string{"Aries", "Leo"} {
			_, err := f.admin.Upsert(ctx, "admin", input(s, d, true))
			require.NoError(t, err)
		}
	}
	cached := func(s domain.Sign, d string) bool {
		_, err := f.cache.Get(ctx, s, d)
		return err == nil
	}

	scope, err := f.admin.ClearCache(ctx, testDate, "aries")
	require.NoError(t, err)
	assert.Equal(t, ScopeKey, scope.Scope)
	assert.False(t, cached(domain.Aries, testDate))
	assert.True(t, cached(domain.Leo, testDate))

	scope, err = f.admin.ClearCache(ctx, testDate, "")
	require.NoError(t, err)
	assert.Equal(t, ScopeDate, scope.Scope)
	assert.False(t, cached(domain.Leo, testDate))
	assert.True(t, cached(domain.Leo, "2025-01-14"))

	scope, err = f.admin.ClearCache(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, scope.Scope)
	assert.False(t, cached(domain.Aries, "2025-01-14"))
	assert.Equal(t, 4, f.store.count(), "сброс кэша не трогает хранилище")

	_, err = f.admin.ClearCache(ctx, testDate, "Dragon")
	assert.ErrorIs(t, err, domain.ErrInvalidSign)
}
