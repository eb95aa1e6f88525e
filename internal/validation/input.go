package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinNameLength        = 2
	MaxNameLength        = 100
	MaxAddressLineLength = 200
	MaxCityLength        = 100
	MaxNotesLength       = 1000
	MinQuantity          = 1
	MaxQuantity          = 100
	OTPCodeLength        = 6
)

var (
	// Индийский мобильный номер: 10 цифр, начинается с 6-9.
	phoneRegex = regexp.MustCompile(`^[6-9]\d{9}$`)
	// Почтовый индекс: 6 цифр, не начинается с нуля.
	pincodeRegex = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	otpRegex     = regexp.MustCompile(`^\d{6}$`)
	nameRegex    = regexp.MustCompile(`^[a-zA-Z\s]{2,}$`)
)

// NormalizeEmail приводит email к каноничному виду: trim + lowercase.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeOTPCode убирает из кода все пробельные символы.
func NormalizeOTPCode(code string) string {
	return strings.Join(strings.Fields(code), "")
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = NormalizeEmail(email)

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	localRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !localRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateOTPCode проверяет, что код состоит ровно из 6 цифр.
// Нормализация (удаление пробелов) должна быть выполнена до вызова.
func ValidateOTPCode(code string) error {
	if !otpRegex.MatchString(code) {
		return fmt.Errorf("код должен состоять ровно из %d цифр", OTPCodeLength)
	}
	return nil
}

// ValidatePhone проверяет индийский мобильный номер.
// Пробелы, дефисы и скобки удаляются перед проверкой.
func ValidatePhone(phone string) error {
	if phone == "" {
		return fmt.Errorf("номер телефона обязателен")
	}

	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	cleaned = strings.TrimPrefix(cleaned, "+91")

	if !phoneRegex.MatchString(cleaned) {
		return fmt.Errorf("номер телефона должен состоять из 10 цифр и начинаться с 6-9")
	}

	return nil
}

// NormalizePhone возвращает номер в виде 10 цифр без префикса страны.
func NormalizePhone(phone string) string {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	return strings.TrimPrefix(cleaned, "+91")
}

// ValidatePincode проверяет почтовый индекс.
func ValidatePincode(pincode string) error {
	if !pincodeRegex.MatchString(strings.TrimSpace(pincode)) {
		return fmt.Errorf("почтовый индекс должен состоять из 6 цифр и не начинаться с нуля")
	}
	return nil
}

// ValidateFullName проверяет имя получателя.
func ValidateFullName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("имя обязательно")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("имя может содержать только буквы и пробелы, не менее %d символов", MinNameLength)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("имя должно быть не более %d символов", MaxNameLength)
	}
	return nil
}

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

// ValidateQuantity проверяет количество товара в позиции корзины.
func ValidateQuantity(quantity int) error {
	if quantity < MinQuantity {
		return fmt.Errorf("количество должно быть не менее %d", MinQuantity)
	}
	if quantity > MaxQuantity {
		return fmt.Errorf("количество должно быть не более %d", MaxQuantity)
	}
	return nil
}

// ValidateAddress проверяет поля адреса доставки.
func ValidateAddress(fullName, phone, line1, city, state, pincode string) error {
	if err := ValidateFullName(fullName); err != nil {
		return err
	}
	if err := ValidatePhone(phone); err != nil {
		return err
	}
	if err := ValidateNonEmpty("адрес", line1); err != nil {
		return err
	}
	if err := ValidateLength("адрес", line1, 0, MaxAddressLineLength); err != nil {
		return err
	}
	if err := ValidateNonEmpty("город", city); err != nil {
		return err
	}
	if err := ValidateNonEmpty("штат", state); err != nil {
		return err
	}
	return ValidatePincode(pincode)
}
