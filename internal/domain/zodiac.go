package domain

import (
	"strings"
	"time"
)

// Sign: знак зодиака.
type Sign string

const (
	Aries       Sign = "Aries"
	Taurus      Sign = "Taurus"
	Gemini      Sign = "Gemini"
	Cancer      Sign = "Cancer"
	Leo         Sign = "Leo"
	Virgo       Sign = "Virgo"
	Libra       Sign = "Libra"
	Scorpio     Sign = "Scorpio"
	Sagittarius Sign = "Sagittarius"
	Capricorn   Sign = "Capricorn"
	Aquarius    Sign = "Aquarius"
	Pisces      Sign = "Pisces"
)

// SignAll: псевдо-знак для запроса по всем знакам сразу.
const SignAll = "all"

// Signs перечисляет все знаки в зодиакальном порядке.
var Signs = []Sign{Aries, Taurus, Gemini, Cancer, Leo, Virgo, Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces}

var signIndex = func() map[string]Sign {
	idx := make(map[string]Sign, len(Signs))
	for _, s := range Signs {
		idx[strings.ToLower(string(s))] = s
	}
	return idx
}()

// ParseSign приводит ввод к каноничному знаку.
func ParseSign(raw string) (Sign, error) {
	if s, ok := signIndex[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s, nil
	}
	return "", ErrInvalidSign
}

// Valid сообщает, входит ли знак в перечисление.
func (s Sign) Valid() bool {
	for _, v := range Signs {
		if v == s {
			return true
		}
	}
	return false
}

type signRange struct {
	sign       Sign
	startMonth time.Month
	startDay   int
}

// Границы знаков по началу периода, упорядочены по календарю.
var sunSignStarts = []signRange{
	{Capricorn, time.January, 1},
	{Aquarius, time.January, 20},
	{Pisces, time.February, 19},
	{Aries, time.March, 21},
	{Taurus, time.April, 20},
	{Gemini, time.May, 21},
	{Cancer, time.June, 21},
	{Leo, time.July, 23},
	{Virgo, time.August, 23},
	{Libra, time.September, 23},
	{Scorpio, time.October, 23},
	{Sagittarius, time.November, 22},
	{Capricorn, time.December, 22},
}

// SunSignFor возвращает солнечный знак для даты рождения по фиксированной таблице.
func SunSignFor(birth time.Time) Sign {
	month, day := birth.Month(), birth.Day()
	result := Capricorn
	for _, r := range sunSignStarts {
		if month > r.startMonth || (month == r.startMonth && day >= r.startDay) {
			result = r.sign
		}
	}
	return result
}

// DateLayout: формат логической даты контента.
const DateLayout = "2006-01-02"

// ParseDate проверяет строку YYYY-MM-DD.
func ParseDate(raw string) (time.Time, error) {
	if len(raw) != len(DateLayout) {
		return time.Time{}, NewValidationError("date", "date must be in YYYY-MM-DD format")
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, NewValidationError("date", "date must be in YYYY-MM-DD format")
	}
	return t, nil
}

// DateIn форматирует момент как логическую дату в заданной зоне.
func DateIn(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}
