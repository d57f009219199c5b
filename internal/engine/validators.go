package engine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Invalid marks a cell that failed its field validator.
const Invalid = "INVALID"

// maxExcelSerial is 9999-12-31 in the 1900 date system.
const maxExcelSerial = 2958465

// Validator transforms one cell. It returns the normalized value or Invalid.
type Validator func(value string) any

// validators is keyed by exact target field name, regardless of format.
var validators = map[string]Validator{
	"CPF":              ValidateCPF,
	"NASCIMENTO":       ValidateDate,
	"Data de admissão": ValidateDate,
	"Salário":          ValidateSalary,
	"Telefone":         ValidatePhone,
	"UF":               ValidateUF,
}

// ValidatorFor returns the validator registered for a field name.
func ValidatorFor(field string) (Validator, bool) {
	v, ok := validators[field]
	return v, ok
}

// ValidatedFields lists the field names that have a validator.
func ValidatedFields() []string {
	names := make([]string, 0, len(validators))
	for name := range validators {
		names = append(names, name)
	}
	return names
}

// ValidateCPF checks a Brazilian taxpayer number and returns its 11 bare digits.
func ValidateCPF(value string) any {
	cpf := digitsOnly(value)
	if len(cpf) != 11 {
		return Invalid
	}
	if strings.Count(cpf, cpf[:1]) == 11 {
		return Invalid
	}

	for d := 10; d <= 11; d++ {
		sum := 0
		for i := 0; i < d-1; i++ {
			sum += int(cpf[i]-'0') * (d - i)
		}
		check := sum * 10 % 11
		if check == 10 {
			check = 0
		}
		if check != int(cpf[d-1]-'0') {
			return Invalid
		}
	}

	return cpf
}

// serialValidators replace the text date validator for cells that came from
// a workbook, where dates are stored as Excel serial numbers.
var serialValidators = map[string]Validator{
	"NASCIMENTO":       ValidateExcelDate,
	"Data de admissão": ValidateExcelDate,
}

func validatorFor(field string, serialDates bool) (Validator, bool) {
	if serialDates {
		if v, ok := serialValidators[field]; ok {
			return v, true
		}
	}
	return ValidatorFor(field)
}

// ValidateDate parses a day-first date and renders it as DD/MM/YYYY.
func ValidateDate(value string) any {
	value = strings.TrimSpace(value)
	if value == "" {
		return Invalid
	}

	t, err := dateparse.ParseAny(value, dateparse.PreferMonthFirst(false))
	if err != nil {
		return Invalid
	}
	return t.Format("02/01/2006")
}

// ValidateExcelDate reads bare numbers in the Excel serial range as Excel
// dates and everything else as ValidateDate does.
func ValidateExcelDate(value string) any {
	value = strings.TrimSpace(value)
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial >= 1 && serial <= maxExcelSerial {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return Invalid
		}
		return t.Format("02/01/2006")
	}
	return ValidateDate(value)
}

// ValidateSalary reads a decimal amount written with a comma separator.
// Unparseable amounts become 0, never Invalid.
func ValidateSalary(value string) any {
	value = strings.TrimSpace(value)
	if comma := strings.LastIndex(value, ","); comma >= 0 {
		// "1.234,56": dots group thousands before a decimal comma.
		// "1,234.56" puts them the other way round and is not accepted.
		if strings.LastIndex(value, ".") > comma {
			return 0.0
		}
		value = strings.ReplaceAll(value, ".", "")
		value = strings.ReplaceAll(value, ",", ".")
	}

	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0.0
	}
	return amount
}

// ValidatePhone formats 11-digit mobile and 10-digit landline numbers.
func ValidatePhone(value string) any {
	phone := digitsOnly(value)
	switch len(phone) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", phone[:2], phone[2:7], phone[7:])
	case 10:
		return fmt.Sprintf("(%s) %s-%s", phone[:2], phone[2:6], phone[6:])
	}
	return Invalid
}

// ValidateUF uppercases a state code. Only the length is checked.
func ValidateUF(value string) any {
	uf := cases.Upper(language.BrazilianPortuguese).String(value)
	if utf8.RuneCountInString(uf) != 2 {
		return Invalid
	}
	return uf
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
