package session

import "time"

// Clamp 把一段区间钳制进班次窗口 [shiftStart, shiftEnd]：
//   - 早于班次开始的起点抬到 shiftStart
//   - 晚于班次结束的终点压到 shiftEnd
//   - 钳制后起点晚于终点的，折叠为零长度区间，钉在被违反的那一侧：
//     原始起点已不早于 shiftEnd 时钉在 shiftEnd，否则钉在 shiftStart
//
// 零长度（start == end）的合法区间原样保留。
func Clamp(start, end, shiftStart, shiftEnd time.Time) (time.Time, time.Time) {
	origStart := start
	if start.Before(shiftStart) {
		start = shiftStart
	}
	if end.After(shiftEnd) {
		end = shiftEnd
	}
	if start.After(end) {
		if !origStart.Before(shiftEnd) {
			return shiftEnd, shiftEnd
		}
		return shiftStart, shiftStart
	}
	return start, end
}

// clampStart 开放区间创建时只有起点可钳制。
func clampStart(start, shiftStart time.Time) time.Time {
	if start.Before(shiftStart) {
		return shiftStart
	}
	return start
}

// startOfDay 返回 t 所在自然日的零点（保持时区）。
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dayKey 累计行的日期键。
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
