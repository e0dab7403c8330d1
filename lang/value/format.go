package value

import "strconv"

func fmtInt(n float64) string {
	return strconv.FormatInt(int64(n), 10)
}

func fmtFloat(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}
