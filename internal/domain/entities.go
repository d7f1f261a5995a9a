package domain

import "time"

// Значения generationMetadata.engine.
const (
	EngineRuleBased   = "rule-based-generator-v1"
	EngineAdminManual = "admin-manual-entry"
	EngineDummy       = "dummy-data-generator"

	TemplateVersion = "v1.0"
	DefaultTimezone = "Asia/Kolkata"
	DefaultLocale   = "en-IN"
)

// SectionKey: ключ раздела гороскопа.
type SectionKey string

const (
	SectionCareer         SectionKey = "career"
	SectionLove           SectionKey = "love"
	SectionFinance        SectionKey = "finance"
	SectionHealth         SectionKey = "health"
	SectionPersonalGrowth SectionKey = "personalGrowth"
)

// SectionKeys перечисляет обязательные разделы.
var SectionKeys = []SectionKey{SectionCareer, SectionLove, SectionFinance, SectionHealth, SectionPersonalGrowth}

// Section: один раздел гороскопа.
type Section struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Sections хранит разделы по ключу.
type Sections map[SectionKey]Section

// Missing возвращает ключи разделов, которых нет или у которых пустой текст.
func (s Sections) Missing() []SectionKey {
	var missing []SectionKey
	for _, key := range SectionKeys {
		sec, ok := s[key]
		if !ok || sec.Text == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

type DosAndDonts struct {
	Dos   []string `json:"dos"`
	Donts []string `json:"donts"`
}

type Lucky struct {
	Numbers   []string `json:"numbers"`
	Colors    []string `json:"colors"`
	TimeOfDay string   `json:"timeOfDay"`
}

type MoodRatings struct {
	Energy int `json:"energy"`
	Love   int `json:"love"`
	Work   int `json:"work"`
	Luck   int `json:"luck"`
}

type ChartSnippet struct {
	MoonPosition string   `json:"moonPosition"`
	MajorTransit []string `json:"majorTransit"`
}

type Comparison struct {
	YesterdayVsToday string `json:"yesterdayVsToday"`
	TomorrowPreview  string `json:"tomorrowPreview"`
}

// GenerationMetadata описывает происхождение записи.
type GenerationMetadata struct {
	Engine          string    `json:"engine"`
	TransitFlags    []string  `json:"transitFlags,omitempty"`
	TemplateVersion string    `json:"templateVersion"`
	ConfidenceScore float64   `json:"confidenceScore"`
	GeneratedAt     time.Time `json:"generatedAt"`
	CreatedBy       string    `json:"createdBy,omitempty"`
}

// Horoscope: единственная запись контента на пару (знак, дата).
type Horoscope struct {
	ID                 int64              `json:"id"`
	Date               string             `json:"date"`
	Timezone           string             `json:"timezone"`
	Locale             string             `json:"locale"`
	Sign               Sign               `json:"sunSign"`
	Summary            string             `json:"summary"`
	Theme              string             `json:"theme"`
	NotificationText   string             `json:"notificationText"`
	Sections           Sections           `json:"sections"`
	DosAndDonts        DosAndDonts        `json:"dosAndDonts"`
	Lucky              Lucky              `json:"lucky"`
	MoodRatings        MoodRatings        `json:"moodRatings"`
	Affirmation        string             `json:"affirmation"`
	ChartSnippet       ChartSnippet       `json:"chartSnippet"`
	Comparison         Comparison         `json:"comparison"`
	Explanation        string             `json:"explanation"`
	GenerationMetadata GenerationMetadata `json:"generationMetadata"`
	Published          bool               `json:"published"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// HoroscopeQuery задаёт фильтры и пагинацию админского списка.
type HoroscopeQuery struct {
	Date  string
	Sign  Sign
	Page  int
	Limit int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize подставляет значения пагинации по умолчанию.
func (q HoroscopeQuery) Normalize() HoroscopeQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q
}

// Offset возвращает смещение для страницы.
func (q HoroscopeQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination описывает страницу выдачи.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination считает количество страниц.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// HoroscopePage: страница админского списка.
type HoroscopePage struct {
	Items      []Horoscope `json:"horoscopes"`
	Pagination Pagination  `json:"pagination"`
}

// DateCount: сводка количества записей за дату.
type DateCount struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	Published int    `json:"publishedCount"`
}

// Profile хранит данные рождения и анкету пользователя.
type Profile struct {
	FirstName    string     `json:"firstName,omitempty"`
	LastName     string     `json:"lastName,omitempty"`
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty"`
	TimeOfBirth  string     `json:"timeOfBirth,omitempty"`
	PlaceOfBirth string     `json:"placeOfBirth,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	Avatar       string     `json:"avatar,omitempty"`
}

// BirthChart: производные от данных рождения.
type BirthChart struct {
	SunSign             Sign       `json:"sunSign,omitempty"`
	RecalculationQueued bool       `json:"recalculationQueued"`
	LastCalculated      *time.Time `json:"lastCalculated,omitempty"`
}

// Preferences: пользовательские настройки.
type Preferences struct {
	Timezone     string `json:"timezone"`
	Language     string `json:"language"`
	NotifyDaily  bool   `json:"notifyDaily"`
	NotifyWeekly bool   `json:"notifyWeekly"`
}

// DefaultPreferences возвращает настройки нового пользователя.
func DefaultPreferences() Preferences {
	return Preferences{Timezone: DefaultTimezone, Language: "en", NotifyDaily: true}
}

// User описывает пользователя, вошедшего по номеру телефона.
type User struct {
	ID           string           `json:"id"`
	PhoneNumber  string           `json:"phoneNumber"`
	IsVerified   bool             `json:"isVerified"`
	IsActive     bool             `json:"isActive"`
	IsAdmin      bool             `json:"isAdmin"`
	Profile      Profile          `json:"profile"`
	BirthChart   BirthChart       `json:"birthChart"`
	Preferences  Preferences      `json:"preferences"`
	Subscription SubscriptionTier `json:"subscription"`
	LastActive   *time.Time       `json:"lastActive,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Location возвращает часовой пояс пользователя или зону по умолчанию.
func (u User) Location(fallback *time.Location) *time.Location {
	if u.Preferences.Timezone != "" {
		if loc, err := time.LoadLocation(u.Preferences.Timezone); err == nil {
			return loc
		}
	}
	return fallback
}

// UserQuery: фильтры админского списка пользователей.
type UserQuery struct {
	Search   string
	Verified *bool
	Page     int
	Limit    int
}

// UsageStats: счётчики активности пользователя.
type UsageStats struct {
	UserID         string     `json:"userId"`
	HoroscopeViews int64      `json:"horoscopeViews"`
	ProfileUpdates int64      `json:"profileUpdates"`
	LastActive     *time.Time `json:"lastActive,omitempty"`
}

// UserCounts: агрегаты для дашборда.
type UserCounts struct {
	Total              int `json:"totalUsers"`
	Verified           int `json:"totalVerifiedUsers"`
	TodayRegistrations int `json:"todayRegistrations"`
	DailyActive        int `json:"dailyActiveUsers"`
}
