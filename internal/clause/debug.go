package clause

import "strings"

// Debug renders c's SQL with each '?' placeholder substituted by the
// corresponding bound value's single-quoted literal description
// (qv.Value.Describe), independent of whether ToSQL itself would be
// used for execution. If c cannot be serialised, the literal marker
// "PARSING FAILED" is substituted instead.
func Debug(c Clause) string {
	sql, err := c.ToSQL()
	if err != nil {
		return "PARSING FAILED"
	}
	values := c.Values()
	var sb strings.Builder
	vi := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' {
			if vi < len(values) {
				sb.WriteString(values[vi].Describe())
				vi++
			} else {
				sb.WriteByte('?')
			}
			continue
		}
		sb.WriteByte(sql[i])
	}
	return sb.String()
}
