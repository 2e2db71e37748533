package record

import (
	"fmt"
	"strconv"
	"time"
)

// Форматы отображения и ввода временных значений.
const (
	displayDateTime = "2006/01/02 15:04"
	displayDate     = "2006/01/02"
	inputDateTime   = "2006-01-02T15:04"
	inputDate       = "2006-01-02"
)

// FormatValue форматирует значение колонки для отображения.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(displayDate)
		}
		return x.Format(displayDateTime)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// FormatInput форматирует значение для атрибута value HTML-формы поля f.
func FormatInput(f Field, v any) string {
	t, ok := v.(time.Time)
	if !ok {
		return FormatValue(v)
	}
	switch f.Widget() {
	case "datetime-local":
		return t.Format(inputDateTime)
	case "date":
		return t.Format(inputDate)
	default:
		return FormatValue(v)
	}
}
