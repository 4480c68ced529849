package newsletter

import (
	"strings"
)

const defaultCallingCode = "1"

var callingCodes = map[string]string{
	"US": "1", "CA": "1", "GB": "44", "AU": "61", "DE": "49", "FR": "33",
	"IT": "39", "ES": "34", "NL": "31", "SE": "46", "NO": "47", "DK": "45",
	"FI": "358", "JP": "81", "KR": "82", "CN": "86", "IN": "91", "BR": "55",
	"MX": "52", "AR": "54", "CL": "56", "CO": "57", "PE": "51", "ZA": "27",
	"EG": "20", "NG": "234", "KE": "254", "MA": "212", "AE": "971", "SA": "966",
	"IL": "972", "TR": "90", "RU": "7", "PL": "48", "CZ": "420", "HU": "36",
	"RO": "40", "BG": "359", "GR": "30", "PT": "351", "IE": "353", "BE": "32",
	"CH": "41", "AT": "43", "LU": "352", "NZ": "64", "SG": "65", "HK": "852",
	"TW": "886", "TH": "66", "MY": "60", "ID": "62", "PH": "63", "VN": "84",
}

// CallingCode maps an ISO country code to its dialing prefix, defaulting to
// the North American plan.
func CallingCode(country string) string {
	if code, ok := callingCodes[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return code
	}
	return defaultCallingCode
}

// NormalizePhone converts a free-form phone number into E.164. An empty
// string means the number is unusable and should be dropped.
func NormalizePhone(raw, country string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	hasPlus := strings.HasPrefix(raw, "+")
	digits := digitsOnly(raw)
	code := CallingCode(country)

	var formatted string
	switch n := len(digits); {
	case hasPlus && n >= 10 && n <= 15:
		formatted = digits
	case n == 10:
		formatted = code + digits
	case n == 11 && strings.HasPrefix(digits, code):
		formatted = digits
	case n > 10 && n <= 15:
		formatted = digits
	default:
		return ""
	}
	if len(formatted) < 10 || len(formatted) > 15 {
		return ""
	}
	return "+" + formatted
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
