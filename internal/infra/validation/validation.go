package validation

import (
	"sort"

	"github.com/gookit/validate"

	"horoscope-hub/internal/domain"
)

// Check запускает проверку и при ошибках возвращает domain.ValidationError
// по первому полю в алфавитном порядке, чтобы ответ не зависел от обхода карты.
func Check(v *validate.Validation) error {
	v.StopOnError = false
	if v.Validate() {
		return nil
	}
	return First(v.Errors)
}

// First выбирает поле и сообщение детерминированно.
func First(errs validate.Errors) error {
	if len(errs) == 0 {
		return nil
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	field := fields[0]

	rules := make([]string, 0, len(errs[field]))
	for r := range errs[field] {
		rules = append(rules, r)
	}
	sort.Strings(rules)
	msg := field + " is invalid"
	if len(rules) > 0 {
		msg = errs[field][rules[0]]
	}
	return domain.NewValidationError(field, msg)
}
