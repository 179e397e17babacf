package patients

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidRUT is returned for a malformed RUT or a wrong check digit.
var ErrInvalidRUT = errors.New("patients: invalid rut")

// NormalizeRUT validates a Chilean RUT and returns it as "12345678-5".
// Dots, spaces and the dash are optional on input; K is upper-cased.
func NormalizeRUT(raw string) (string, error) {
	cleaned := strings.ToUpper(strings.NewReplacer(".", "", "-", "", " ", "").Replace(raw))
	if len(cleaned) < 2 || len(cleaned) > 9 {
		return "", ErrInvalidRUT
	}
	body, dv := cleaned[:len(cleaned)-1], cleaned[len(cleaned)-1:]
	n, err := strconv.Atoi(body)
	if err != nil || n <= 0 {
		return "", ErrInvalidRUT
	}
	if checkDigit(n) != dv {
		return "", ErrInvalidRUT
	}
	return strconv.Itoa(n) + "-" + dv, nil
}

// checkDigit is the modulo 11 verifier.
func checkDigit(n int) string {
	sum, factor := 0, 2
	for ; n > 0; n /= 10 {
		sum += (n % 10) * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch r := 11 - sum%11; r {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return strconv.Itoa(r)
	}
}
