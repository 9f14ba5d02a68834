package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MaxServiceTypeLength  = 100
	MaxBrandNameLength    = 200
	MaxGoalsLength        = 3000
	MaxRequirementsLength = 3000
	MaxDeliverableLength  = 300
	MaxDeliverablesCount  = 20
	MaxTimelineDays       = 365
	MaxRevisions          = 20
	MaxDescriptionLength  = 2000
	MaxChatMessageLength  = 4000
	MaxRefundReasonLength = 500
	MaxAdminNoteLength    = 1000
	MaxTransferRefLength  = 100
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateText - обязательное поле ограниченной длины.
func ValidateText(fieldName, value string, max int) error {
	if err := ValidateNonEmpty(fieldName, value); err != nil {
		return err
	}
	return ValidateLength(fieldName, strings.TrimSpace(value), 0, max)
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return fmt.Errorf("некорректный формат email")
	}
	if len(local) == 0 || len(local) > 64 || !emailLocalRegex.MatchString(local) {
		return fmt.Errorf("локальная часть email имеет некорректный формат")
	}
	if len(domain) > 255 || !emailDomainRegex.MatchString(domain) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}
	return nil
}

// ValidateRange проверяет целое значение на попадание в отрезок.
func ValidateRange(fieldName string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s должен быть от %d до %d", fieldName, min, max)
	}
	return nil
}

// ValidateDeliverables проверяет список результатов работы.
func ValidateDeliverables(items []string) error {
	if len(items) > MaxDeliverablesCount {
		return fmt.Errorf("не более %d результатов работы", MaxDeliverablesCount)
	}
	for _, item := range items {
		if err := ValidateText("результат работы", item, MaxDeliverableLength); err != nil {
			return err
		}
	}
	return nil
}
