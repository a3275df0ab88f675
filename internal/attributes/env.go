package attributes

import (
	"github.com/mrzor/tracelog-converter/internal/events"
)

// exprEnv is the environment used for expression type checking.
func exprEnv() map[string]interface{} {
	return map[string]interface{}{
		"ts":      0,
		"cpu":     0,
		"type":    "",
		"subtype": 0,
		"name":    "",
		"thread":  "",
		"fields":  map[string]interface{}{},
	}
}

// Env builds the evaluation environment of e.
func Env(e events.Event) map[string]interface{} {
	m := e.Base()
	return map[string]interface{}{
		"ts":      int(m.Timestamp), //nolint:gosec // log time fits in int64 for any real capture
		"cpu":     int(m.CPU),
		"type":    m.Category(),
		"subtype": int(m.Subtype),
		"name":    e.Name(),
		"thread":  m.Thread,
		"fields":  events.FieldMap(e),
	}
}
