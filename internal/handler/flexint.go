package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sakif/scoreboard/internal/apperror"
)

// FlexInt is an integer request field that also accepts its value as a
// numeric string, so {"score": 10} and {"score": "10"} decode the same.
// Integral floats such as 10.0 are accepted; 10.5 is not.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return apperror.ValidationFailed("", "Invalid number")
		}
		raw = []byte(strings.TrimSpace(s))
	}

	n, err := parseInt(string(raw))
	if err != nil {
		return apperror.ValidationFailed("", fmt.Sprintf("%q is not a whole number", string(data)))
	}
	*f = FlexInt(n)
	return nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("not a 32-bit integer: %s", s)
	}
	return int(v), nil
}

// intPtr converts an optional FlexInt to an optional int.
func (f *FlexInt) intPtr() *int {
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}
