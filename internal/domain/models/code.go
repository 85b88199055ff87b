package models

import (
	"strconv"
	"strings"
)

// CanonicalPrefix - пространство имен канонических идентификаторов ссылок.
const CanonicalPrefix = "PRB"

func FormatCode(prefix string, n int64) string {
	return prefix + strconv.FormatInt(n, 10)
}

// ParseCode разбирает prefix+digits. Любой другой формат (uuid, пустой суффикс, знак) - false.
func ParseCode(prefix, code string) (int64, bool) {
	suffix, ok := strings.CutPrefix(code, prefix)
	if !ok || suffix == "" {
		return 0, false
	}
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func IsCanonicalCode(code string) bool {
	_, ok := ParseCode(CanonicalPrefix, code)
	return ok
}
