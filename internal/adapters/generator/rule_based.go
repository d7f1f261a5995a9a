package generator

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"horoscope-hub/internal/domain"
)

// Смещения полей: каждое поле тянет свою независимую выборку из одного сида.
const (
	offSummaryKeyword uint64 = iota + 1
	offSummaryStrength
	offTheme
	offDoStrength
	offDoKeyword
	offDoPractice
	offDontChallenge
	offDontNeglect
	offLuckyNumbers
	offLuckyColor
	offLuckyHour
	offAffirmation
	offMoon
	offYesterday
	offTomorrow
	offExplanation
	offMood
	offConfidence
)

// Смещения внутри раздела.
const (
	offTemplate uint64 = iota
	offKeyword
	offStrength
	offChallenge
)

// RuleBased: детерминированный генератор rule-based-generator-v1.
type RuleBased struct{}

// NewRuleBased создаёт генератор.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

var _ domain.Generator = (*RuleBased)(nil)

// Generate строит запись по (sign, date). Одинаковые входы всегда дают одинаковый результат.
func (g *RuleBased) Generate(sign domain.Sign, date string) (domain.Horoscope, error) {
	tr, ok := zodiacTraits[sign]
	if !ok {
		return domain.Horoscope{}, domain.ErrInvalidSign
	}
	day, err := domain.ParseDate(date)
	if err != nil {
		return domain.Horoscope{}, err
	}

	seed := Seed(sign, date)
	pick := func(items []string, offset uint64) string {
		return items[draw(seed, offset)%uint64(len(items))]
	}

	sections := make(domain.Sections, len(domain.SectionKeys))
	for _, key := range domain.SectionKeys {
		sections[key] = domain.Section{
			Title: sectionTitles[key],
			Text:  sectionText(sign, date, key, tr),
		}
	}

	hour := 6 + int(draw(seed, offLuckyHour)%12)
	numBase := draw(seed, offLuckyNumbers)
	numbers := make([]string, 0, 2)
	for i := uint64(0); i < 2; i++ {
		numbers = append(numbers, strconv.FormatUint((numBase+i*7)%9+1, 10))
	}

	moodSeed := draw(seed, offMood)
	moodBase := int(moodSeed%3) + 2
	mood := func(k uint64) int {
		return min(5, moodBase+int((moodSeed>>k)%2))
	}

	theme := pick(tr.keywords, offTheme)

	return domain.Horoscope{
		Date:             date,
		Timezone:         domain.DefaultTimezone,
		Locale:           domain.DefaultLocale,
		Sign:             sign,
		Summary:          fmt.Sprintf("Today brings %s energy. Embrace your %s side.", pick(tr.keywords, offSummaryKeyword), pick(tr.strengths, offSummaryStrength)),
		Theme:            strings.ToUpper(theme[:1]) + theme[1:] + " & Growth",
		NotificationText: fmt.Sprintf("Your %s energy shines today. Focus on what matters most.", sign),
		Sections:         sections,
		DosAndDonts: domain.DosAndDonts{
			Dos: []string{
				fmt.Sprintf("Embrace your %s nature today.", pick(tr.strengths, offDoStrength)),
				fmt.Sprintf("Focus on %s activities.", pick(tr.keywords, offDoKeyword)),
				fmt.Sprintf("Practice %s.", pick(practiceFillers, offDoPractice)),
			},
			Donts: []string{
				fmt.Sprintf("Avoid being %s with others.", pick(tr.challenges, offDontChallenge)),
				fmt.Sprintf("Don't neglect %s.", pick(neglectFillers, offDontNeglect)),
			},
		},
		Lucky: domain.Lucky{
			Numbers:   numbers,
			Colors:    []string{pick(tr.colors, offLuckyColor)},
			TimeOfDay: fmt.Sprintf("%d:00-%d:00 local", hour, hour+2),
		},
		MoodRatings: domain.MoodRatings{
			Energy: mood(0),
			Love:   mood(1),
			Work:   mood(2),
			Luck:   mood(3),
		},
		Affirmation: fmt.Sprintf("I embrace my %s nature and create positive change.", pick(tr.strengths, offAffirmation)),
		ChartSnippet: domain.ChartSnippet{
			MoonPosition: fmt.Sprintf("Moon influences %s today", pick(tr.keywords, offMoon)),
			MajorTransit: []string{fmt.Sprintf("%s energy heightened", sign), "Positive planetary alignment"},
		},
		Comparison: domain.Comparison{
			YesterdayVsToday: fmt.Sprintf("More %s energy than yesterday.", pick(tr.keywords, offYesterday)),
			TomorrowPreview:  fmt.Sprintf("Tomorrow may bring opportunities for %s.", pick(tr.keywords, offTomorrow)),
		},
		Explanation: fmt.Sprintf("%s traits are highlighted today with positive planetary influences supporting %s activities.", sign, pick(tr.keywords, offExplanation)),
		GenerationMetadata: domain.GenerationMetadata{
			Engine:          domain.EngineRuleBased,
			TransitFlags:    []string{strings.ToLower(string(sign)) + "_energy", "positive_alignment"},
			TemplateVersion: domain.TemplateVersion,
			ConfidenceScore: 0.85 + float64(draw(seed, offConfidence)%10)/100,
			GeneratedAt:     day.UTC(),
		},
	}, nil
}

func sectionText(sign domain.Sign, date string, key domain.SectionKey, tr traits) string {
	seed := hashString(string(sign) + "|" + date + "|" + string(key))
	templates := sectionTemplates[key]
	tpl := templates[draw(seed, offTemplate)%uint64(len(templates))]
	return strings.NewReplacer(
		"{keyword}", tr.keywords[draw(seed, offKeyword)%uint64(len(tr.keywords))],
		"{strength}", tr.strengths[draw(seed, offStrength)%uint64(len(tr.strengths))],
		"{challenge}", tr.challenges[draw(seed, offChallenge)%uint64(len(tr.challenges))],
	).Replace(tpl)
}

// Seed выводит сид записи из пары (sign, date).
func Seed(sign domain.Sign, date string) uint64 {
	return hashString(string(sign) + "|" + date)
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// draw: splitmix64 от сида, сдвинутого на смещение поля.
func draw(seed, offset uint64) uint64 {
	z := seed + (offset+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Dummy помечает сгенерированную запись как данные сидера.
func Dummy(h domain.Horoscope, published bool, at time.Time) domain.Horoscope {
	h.GenerationMetadata.Engine = domain.EngineDummy
	h.GenerationMetadata.GeneratedAt = at.UTC()
	h.GenerationMetadata.CreatedBy = "seeder"
	h.Published = published
	return h
}
