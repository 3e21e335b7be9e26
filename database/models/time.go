package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const localTimeLayout = "2006-01-02 15:04:05"

// LocalTime 数据库与 JSON 统一使用本地时区、秒级精度的时间。
type LocalTime time.Time

func FromTime(t time.Time) LocalTime {
	return LocalTime(t.Local())
}

func (lt LocalTime) ToTime() time.Time {
	return time.Time(lt)
}

func (lt LocalTime) IsZero() bool {
	return time.Time(lt).IsZero()
}

func (lt LocalTime) Value() (driver.Value, error) {
	if lt.IsZero() {
		return nil, nil
	}
	return time.Time(lt), nil
}

func (lt *LocalTime) Scan(v interface{}) error {
	switch val := v.(type) {
	case nil:
		*lt = LocalTime{}
		return nil
	case time.Time:
		*lt = LocalTime(val.Local())
		return nil
	case []byte:
		return lt.parse(string(val))
	case string:
		return lt.parse(val)
	default:
		return fmt.Errorf("models.LocalTime: cannot scan %T", v)
	}
}

func (lt *LocalTime) parse(s string) error {
	if s == "" {
		*lt = LocalTime{}
		return nil
	}
	// sqlite 可能返回带时区的 RFC3339，mysql 返回无时区的 DATETIME
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*lt = LocalTime(t.Local())
		return nil
	}
	t, err := time.ParseInLocation(localTimeLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("models.LocalTime: cannot parse %q: %w", s, err)
	}
	*lt = LocalTime(t)
	return nil
}

func (lt LocalTime) MarshalJSON() ([]byte, error) {
	if lt.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(fmt.Sprintf("%q", time.Time(lt).Format(localTimeLayout))), nil
}

func (lt *LocalTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*lt = LocalTime{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return lt.parse(s)
}
