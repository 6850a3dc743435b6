package payout

import (
	"strings"

	"coursepay/internal/config"
)

// PawaPay correspondents for the Democratic Republic of the Congo.
const (
	CorrespondentVodacom  = "VODACOM_MPESA_COD"
	CorrespondentAirtel   = "AIRTEL_COD"
	CorrespondentOrange   = "ORANGE_COD"
	CorrespondentAfricell = "AFRICELL_COD"

	DefaultCorrespondent = CorrespondentVodacom
)

var correspondents = map[string]string{
	"vodacom":  CorrespondentVodacom,
	"mpesa":    CorrespondentVodacom,
	"m-pesa":   CorrespondentVodacom,
	"airtel":   CorrespondentAirtel,
	"orange":   CorrespondentOrange,
	"africell": CorrespondentAfricell,
}

// Correspondent maps a user-facing operator name to the provider code,
// falling back to DefaultCorrespondent.
func Correspondent(operator string) string {
	key := strings.ToLower(strings.TrimSpace(operator))
	if c, ok := correspondents[key]; ok {
		return c
	}
	for _, c := range correspondents {
		if strings.EqualFold(key, c) {
			return c
		}
	}
	return DefaultCorrespondent
}

// NormalizePhone strips everything but digits and checks the result against rule.
func NormalizePhone(raw string, rule config.PhoneRule) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) != rule.Digits || !strings.HasPrefix(digits, rule.CallingCode) {
		return "", false
	}
	return digits, true
}
