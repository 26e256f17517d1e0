package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If no errors or only nil values are given, nil is returned. If only a single
// non nil error is given, it is returned as it is.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		if m, ok := e.(multiErr); ok {
			res = append(res, m...)
			continue
		}
		res = append(res, e)
	}
	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

// multiErr represents a group of errors. The first error of the group is
// the one reported by ABCICode.
type multiErr []error

func (m multiErr) Error() string {
	points := make([]string, len(m))
	for i, err := range m {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s", len(m), strings.Join(points, "\n\t"))
}

// Unpack returns all clubbed errors.
func (m multiErr) Unpack() []error {
	return m
}

// ABCICode returns the code of the first contained error.
func (m multiErr) ABCICode() uint32 {
	return abciCode(m[0])
}
