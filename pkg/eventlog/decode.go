package eventlog

import (
	"errors"

	"github.com/valyala/fastjson"
)

var errNotObject = errors.New("record is not a JSON object")

// decoder turns raw lines into typed records. It reuses one fastjson parser,
// so it must not be shared between goroutines.
type decoder struct {
	parser fastjson.Parser
}

// decode parses one line for the given stream. Every string it keeps is
// copied out of the parser's buffer.
func (d *decoder) decode(stream Stream, line []byte) (Record, error) {
	v, err := d.parser.ParseBytes(line)
	if err != nil {
		return nil, err
	}
	if v.Type() != fastjson.TypeObject {
		return nil, errNotObject
	}

	h := Header{
		Timestamp: str(v, "timestamp"),
		Event:     str(v, "event"),
		Level:     str(v, "level"),
		Message:   str(v, "message"),
		Service:   str(v, "service"),
	}
	if t, ok := ParseTimestamp(h.Timestamp); ok {
		h.Time = t
	}

	switch stream {
	case StreamApp:
		return &AppEvent{
			Header:     h,
			RequestID:  str(v, "requestId"),
			Method:     str(v, "method"),
			URL:        str(v, "url"),
			Path:       str(v, "path"),
			Activity:   str(v, "activity"),
			Framework:  str(v, "framework"),
			StatusCode: int(num(v, "statusCode")),
			DurationMS: num(v, "duration_ms"),
		}, nil
	case StreamErrors:
		e := &ErrorEvent{
			Header:     h,
			Context:    str(v, "context"),
			UserAction: str(v, "userAction"),
		}
		if ev := v.Get("error"); ev != nil && ev.Type() == fastjson.TypeObject {
			e.Error = &ErrorDetail{
				Name:    str(ev, "name"),
				Message: str(ev, "message"),
				Stack:   str(ev, "stack"),
			}
		}
		return e, nil
	case StreamActivities:
		return &ActivityEvent{
			Header:     h,
			Name:       str(v, "name"),
			Type:       str(v, "type"),
			Domain:     str(v, "domain"),
			Route:      str(v, "route"),
			Path:       str(v, "path"),
			Activity:   str(v, "activity"),
			DurationMS: num(v, "duration_ms"),
		}, nil
	case StreamPerformance:
		return &PerfEvent{
			Header:     h,
			RequestID:  str(v, "requestId"),
			Method:     str(v, "method"),
			URL:        str(v, "url"),
			Path:       str(v, "path"),
			Activity:   str(v, "activity"),
			DurationMS: num(v, "duration_ms"),
		}, nil
	default:
		b := &BrowserEvent{
			Header:        h,
			SessionID:     str(v, "sessionId"),
			CorrelationID: str(v, "correlationId"),
			UserID:        str(v, "userId"),
			Activity:      str(v, "activity"),
			Action:        str(v, "action"),
			URL:           str(v, "url"),
			Title:         str(v, "title"),
			Metric:        str(v, "metric"),
		}
		if mv := v.Get("value"); mv != nil && mv.Type() == fastjson.TypeNumber {
			if f, err := mv.Float64(); err == nil {
				b.Value = &f
			}
		}
		return b, nil
	}
}

// str returns the string at key, or "" when missing or not a string.
func str(v *fastjson.Value, key string) string {
	return string(v.GetStringBytes(key))
}

// num returns the number at key, or 0 when missing or not a number.
func num(v *fastjson.Value, key string) float64 {
	return v.GetFloat64(key)
}
