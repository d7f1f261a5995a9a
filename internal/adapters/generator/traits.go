package generator

import "horoscope-hub/internal/domain"

type traits struct {
	keywords   []string
	colors     []string
	strengths  []string
	challenges []string
}

var zodiacTraits = map[domain.Sign]traits{
	domain.Aries: {
		keywords:   []string{"energy", "leadership", "courage", "action", "initiative"},
		colors:     []string{"Red", "Orange", "Crimson"},
		strengths:  []string{"confident", "determined", "enthusiastic"},
		challenges: []string{"impatient", "impulsive", "competitive"},
	},
	domain.Taurus: {
		keywords:   []string{"stability", "comfort", "perseverance", "luxury", "nature"},
		colors:     []string{"Green", "Pink", "Earth Tones"},
		strengths:  []string{"reliable", "practical", "devoted"},
		challenges: []string{"stubborn", "possessive", "uncompromising"},
	},
	domain.Gemini: {
		keywords:   []string{"communication", "curiosity", "adaptability", "learning", "social"},
		colors:     []string{"Yellow", "Silver", "Light Blue"},
		strengths:  []string{"adaptable", "outgoing", "intelligent"},
		challenges: []string{"inconsistent", "indecisive", "anxious"},
	},
	domain.Cancer: {
		keywords:   []string{"emotion", "intuition", "home", "family", "nurturing"},
		colors:     []string{"White", "Silver", "Sea Blue"},
		strengths:  []string{"loyal", "emotional", "sympathetic"},
		challenges: []string{"moody", "pessimistic", "suspicious"},
	},
	domain.Leo: {
		keywords:   []string{"creativity", "warmth", "generosity", "humor", "drama"},
		colors:     []string{"Gold", "Orange", "Yellow"},
		strengths:  []string{"creative", "passionate", "generous"},
		challenges: []string{"arrogant", "stubborn", "self-centered"},
	},
	domain.Virgo: {
		keywords:   []string{"perfectionism", "service", "health", "analysis", "organization"},
		colors:     []string{"Navy Blue", "Grey", "Beige"},
		strengths:  []string{"loyal", "analytical", "practical"},
		challenges: []string{"shy", "worried", "overly critical"},
	},
	domain.Libra: {
		keywords:   []string{"balance", "harmony", "justice", "partnerships", "beauty"},
		colors:     []string{"Pink", "Green", "Light Blue"},
		strengths:  []string{"cooperative", "diplomatic", "gracious"},
		challenges: []string{"indecisive", "conflict-avoidant", "self-pitying"},
	},
	domain.Scorpio: {
		keywords:   []string{"intensity", "passion", "mystery", "transformation", "power"},
		colors:     []string{"Deep Red", "Black", "Maroon"},
		strengths:  []string{"resourceful", "brave", "passionate"},
		challenges: []string{"distrusting", "jealous", "secretive"},
	},
	domain.Sagittarius: {
		keywords:   []string{"adventure", "freedom", "philosophy", "travel", "optimism"},
		colors:     []string{"Purple", "Turquoise", "Light Blue"},
		strengths:  []string{"generous", "idealistic", "good-humored"},
		challenges: []string{"overpromising", "impatient", "undiplomatic"},
	},
	domain.Capricorn: {
		keywords:   []string{"ambition", "discipline", "responsibility", "tradition", "success"},
		colors:     []string{"Brown", "Black", "Dark Green"},
		strengths:  []string{"responsible", "disciplined", "organized"},
		challenges: []string{"know-it-all", "unforgiving", "condescending"},
	},
	domain.Aquarius: {
		keywords:   []string{"innovation", "independence", "humanitarian", "originality", "progress"},
		colors:     []string{"Light Blue", "Silver", "Aqua"},
		strengths:  []string{"progressive", "original", "independent"},
		challenges: []string{"emotionally distant", "temperamental", "uncompromising"},
	},
	domain.Pisces: {
		keywords:   []string{"compassion", "artistry", "intuition", "gentleness", "wisdom"},
		colors:     []string{"Sea Green", "Lavender", "Purple"},
		strengths:  []string{"compassionate", "artistic", "intuitive"},
		challenges: []string{"fearful", "overly trusting", "escapist"},
	},
}

var sectionTitles = map[domain.SectionKey]string{
	domain.SectionCareer:         "Career & Work",
	domain.SectionLove:           "Love & Relationships",
	domain.SectionFinance:        "Money & Finance",
	domain.SectionHealth:         "Health & Wellness",
	domain.SectionPersonalGrowth: "Personal Growth",
}

var sectionTemplates = map[domain.SectionKey][]string{
	domain.SectionCareer: {
		"Focus on {keyword} in your professional life today. Being {strength} will be your advantage.",
		"Your {strength} nature shines at work. Avoid being {challenge} with colleagues.",
		"Professional opportunities arise when you embrace your {keyword} side.",
	},
	domain.SectionLove: {
		"In relationships, your {strength} quality attracts positive energy. Be mindful of {challenge} tendencies.",
		"Love flows when you balance {keyword} with understanding. Small gestures matter.",
		"Your {keyword} nature brings harmony to relationships today.",
	},
	domain.SectionFinance: {
		"Financial decisions benefit from your {strength} approach. Avoid {challenge} spending habits.",
		"Money matters require {keyword} today. Your {strength} nature guides wise choices.",
		"Be {strength} with financial planning while avoiding {challenge} decisions.",
	},
	domain.SectionHealth: {
		"Your {strength} constitution supports good health. Focus on {keyword} activities.",
		"Physical wellness improves when you channel {keyword} energy positively.",
		"Health thrives with {strength} habits. Avoid {challenge} patterns today.",
	},
	domain.SectionPersonalGrowth: {
		"Personal development comes through embracing {keyword}. Your {strength} nature is an asset.",
		"Growth happens when you balance {strength} qualities with awareness of {challenge} patterns.",
		"Self-reflection on {keyword} brings valuable insights today.",
	},
}

var (
	practiceFillers = []string{"mindfulness", "gratitude", "patience"}
	neglectFillers  = []string{"self-care", "relationships", "responsibilities"}
)
