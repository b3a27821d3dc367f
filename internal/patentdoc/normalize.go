package patentdoc

import (
	"strconv"
	"strings"
)

var (
	usKindCodes = []string{"A1", "A2", "B1", "B2", "B3", "C1", "C2"}
	woKindCodes = []string{"A1", "A2", "A3", "A4", "B1", "B2"}
	epKindCodes = []string{"A1", "A2", "A3", "B1", "B2"}

	fallbackKindCodes = []string{"A1", "A2", "B1", "B2"}
)

// Normalize maps a user-entered patent number onto the canonical identifier
// used as the lookup key, e.g. "WO 2024/033280" -> "WO2024033280A1".
//
// Two known-lossy behaviors: the kind code is always rewritten to A1 even
// when the input carried another kind (downstream lookup tolerates the
// mismatch), and an 8-digit US number whose leading pair reads 00-25 is
// taken as a shortened post-2000 year and expanded with a "20" prefix,
// which misreads legacy serials and years past 2025.
func Normalize(raw string) string {
	id := strings.ToUpper(strings.TrimSpace(raw))
	id = strings.ReplaceAll(id, " ", "")
	id = strings.ReplaceAll(id, "/", "")

	switch {
	case strings.HasPrefix(id, "US"):
		num := stripKindCode(id[2:], usKindCodes)
		if len(num) == 8 {
			if yy, err := strconv.Atoi(num[:2]); err == nil && yy >= 0 && yy <= 25 {
				num = "20" + num
			}
		}
		return "US" + num + "A1"
	case strings.HasPrefix(id, "WO"):
		return "WO" + stripKindCode(id[2:], woKindCodes) + "A1"
	case strings.HasPrefix(id, "EP"):
		return "EP" + stripKindCode(id[2:], epKindCodes) + "A1"
	default:
		for _, kind := range fallbackKindCodes {
			if strings.HasSuffix(id, kind) {
				return id
			}
		}
		return id + "A1"
	}
}

func stripKindCode(num string, kinds []string) string {
	for _, kind := range kinds {
		if strings.HasSuffix(num, kind) {
			return strings.TrimSuffix(num, kind)
		}
	}
	return num
}
