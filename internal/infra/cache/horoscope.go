package cache

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"horoscope-hub/internal/domain"
)

// KeyPrefix: пространство ключей снимков гороскопов.
const KeyPrefix = "horoscope:"

// DefaultTTL: время жизни снимка.
const DefaultTTL = 24 * time.Hour

// Key формирует ключ horoscope:{sunSign}:{date}.
func Key(sign domain.Sign, date string) string {
	return fmt.Sprintf("%s%s:%s", KeyPrefix, sign, date)
}

// DateKeys возвращает ключи всех двенадцати знаков за дату.
func DateKeys(date string) []string {
	keys := make([]string, 0, len(domain.Signs))
	for _, s := range domain.Signs {
		keys = append(keys, Key(s, date))
	}
	return keys
}

func encode(h domain.Horoscope) ([]byte, error) {
	return json.Marshal(h)
}

func decode(data []byte) (domain.Horoscope, error) {
	var h domain.Horoscope
	if err := json.Unmarshal(data, &h); err != nil {
		return domain.Horoscope{}, err
	}
	return h, nil
}
