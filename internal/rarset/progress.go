package rarset

import (
	"regexp"
	"strconv"
)

// percentRegex finds "NN%" not preceded by another digit. 100 is spelled out
// because the run of digits is otherwise capped at two.
var percentRegex = regexp.MustCompile(`(?:^|\D)(100|\d{1,2})%`)

// ParseProgress extracts the completion percentage from one line of tool
// output. Lines without a percentage report false.
func ParseProgress(line string) (uint8, bool) {
	m := percentRegex.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseUint(m[1], 10, 8)
	if err != nil || n > 100 {
		return 0, false
	}
	return uint8(n), true
}
