package logger

import (
	"regexp"
	"strings"
)

var cpfRegex = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`)

// RedactCPF masks a CPF for safe logging, keeping the first three and the
// check digits: "111.444.777-35" → "111.***.***-35".
func RedactCPF(cpf string) string {
	var digits strings.Builder
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) != 11 {
		return "***.***.***-**"
	}
	return d[:3] + ".***.***-" + d[9:]
}

func redactCPFs(val string) string {
	return cpfRegex.ReplaceAllStringFunc(val, RedactCPF)
}
