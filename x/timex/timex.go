package timex

import (
	"strconv"
	"time"
)

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// FormatUptime renders d as "Nd HH:MM:SS", dropping sub-second precision.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	days := s / 86400
	s %= 86400
	return strconv.FormatInt(days, 10) + "d " + two(s/3600) + ":" + two(s%3600/60) + ":" + two(s%60)
}

func two(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
