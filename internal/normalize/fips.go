package normalize

import (
	"strings"
)

// NormalizeFIPS cleans a FIPS cell. Daily reports publish FIPS as numbers
// ("36061.0", "6037"), so the decimal tail is dropped and the code is
// zero-padded to 2 digits (state) or 5 digits (county).
func NormalizeFIPS(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexByte(code, '.'); i >= 0 {
		if strings.Trim(code[i+1:], "0") != "" {
			return ""
		}
		code = code[:i]
	}
	if code == "" {
		return ""
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return ""
		}
	}
	switch {
	case len(code) <= 2:
		return strings.Repeat("0", 2-len(code)) + code
	case len(code) <= 5:
		return strings.Repeat("0", 5-len(code)) + code
	default:
		return code
	}
}
