package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCPF(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"Punctuated valid", "111.444.777-35", "11144477735"},
		{"Bare valid", "11144477735", "11144477735"},
		{"Valid with spaces", " 529.982.247-25 ", "52998224725"},
		{"All zeros", "00000000000", Invalid},
		{"All identical", "111.111.111-11", Invalid},
		{"Too short", "123", Invalid},
		{"Too long", "111444777350", Invalid},
		{"Wrong first check digit", "11144477745", Invalid},
		{"Wrong second check digit", "11144477736", Invalid},
		{"Empty", "", Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateCPF(tt.input))
		})
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"Day first", "15/03/1990", "15/03/1990"},
		{"Ambiguous is day first", "03/04/2020", "03/04/2020"},
		{"ISO", "1990-03-15", "15/03/1990"},
		{"Bare year", "1990", "01/01/1990"},
		{"Not a date", "not-a-date", Invalid},
		{"Empty", "", Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateDate(tt.input))
		})
	}
}

func TestValidateExcelDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"Serial", "32947", "15/03/1990"},
		{"Serial with time", "32947.5", "15/03/1990"},
		{"Small number is a serial", "1990", "12/06/1905"},
		{"Text falls back", "15/03/1990", "15/03/1990"},
		{"Empty", "", Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateExcelDate(tt.input))
		})
	}
}

func TestValidatorFor_SerialDates(t *testing.T) {
	text, ok := validatorFor("NASCIMENTO", false)
	assert.True(t, ok)
	assert.Equal(t, "01/01/1990", text("1990"))

	serial, ok := validatorFor("NASCIMENTO", true)
	assert.True(t, ok)
	assert.Equal(t, "12/06/1905", serial("1990"))

	cpf, ok := validatorFor("CPF", true)
	assert.True(t, ok)
	assert.Equal(t, "11144477735", cpf("111.444.777-35"))
}

func TestValidateSalary(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"Brazilian thousands", "1.234,56", 1234.56},
		{"Decimal comma", "2500,5", 2500.5},
		{"Plain number", "3100.75", 3100.75},
		{"Integer", "1800", 1800.0},
		{"Text", "abc", 0.0},
		{"Empty", "", 0.0},
		{"Two commas", "1,234,56", 0.0},
		{"Thousands comma decimal dot", "1,234.56", 0.0},
		{"Dot after comma", "12,5.0", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateSalary(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.NotEqual(t, Invalid, got)
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"Mobile", "11987654321", "(11) 98765-4321"},
		{"Landline", "1133334444", "(11) 3333-4444"},
		{"Punctuated mobile", "(21) 99876-5432", "(21) 99876-5432"},
		{"Too short", "123", Invalid},
		{"Twelve digits", "551198765432", Invalid},
		{"Empty", "", Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidatePhone(tt.input))
		})
	}
}

func TestValidateUF(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"Lowercase", "sp", "SP"},
		{"Uppercase", "RJ", "RJ"},
		{"Mixed", "mG", "MG"},
		{"One letter", "S", Invalid},
		{"Three letters", "SPX", Invalid},
		{"Empty", "", Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateUF(tt.input))
		})
	}
}

func TestValidatorFor(t *testing.T) {
	for _, field := range []string{"CPF", "NASCIMENTO", "Data de admissão", "Salário", "Telefone", "UF"} {
		_, ok := ValidatorFor(field)
		assert.True(t, ok, field)
	}
	_, ok := ValidatorFor("Nome")
	assert.False(t, ok)
	_, ok = ValidatorFor("cpf")
	assert.False(t, ok, "lookup is by exact name")
	assert.Len(t, ValidatedFields(), 6)
}
