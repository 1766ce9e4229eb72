package collection

import (
	"fmt"
	"strconv"
	"strings"
)

// MalformedCardNumberError reports card numbers that could not be parsed
// into a numeric sort key. The sort itself still completes; malformed
// entries are placed after all well-formed ones.
type MalformedCardNumberError struct {
	Numbers []string
}

func (e *MalformedCardNumberError) Error() string {
	return fmt.Sprintf("malformed card numbers: %s", strings.Join(e.Numbers, ", "))
}

// sortKey is the numeric-then-alphabetic ordering key derived from a card
// number such as "102a": leading digits are the primary key, the trailing
// suffix the secondary key.
type sortKey struct {
	num    int
	suffix string
	ok     bool
}

// parseSortKey splits a card number into its numeric prefix and letter
// suffix. Numbers without a leading digit are malformed.
func parseSortKey(number string) sortKey {
	i := 0
	for i < len(number) && number[i] >= '0' && number[i] <= '9' {
		i++
	}
	if i == 0 {
		return sortKey{ok: false}
	}
	num, err := strconv.Atoi(number[:i])
	if err != nil {
		// Numeric prefix too large for int; treat as malformed rather
		// than miscompare.
		return sortKey{ok: false}
	}
	return sortKey{num: num, suffix: number[i:], ok: true}
}

// less orders well-formed keys numerically then by suffix. Malformed keys
// sort after every well-formed key and fall back to raw string order among
// themselves via the caller.
func (k sortKey) less(other sortKey) bool {
	if k.ok != other.ok {
		return k.ok
	}
	if !k.ok {
		return false
	}
	if k.num != other.num {
		return k.num < other.num
	}
	return k.suffix < other.suffix
}
