package log

import "time"

// Field is a single structured key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field of any value.
func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

func Str(key, value string) Field           { return Field{Key: key, Value: value} }
func Int(key string, value int) Field       { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field   { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field     { return Field{Key: key, Value: value} }

// Duration renders as a string such as "1.5ms".
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Err renders err under the "error" key. A nil error renders as nil.
func Err(err error) Field {
	if err == nil {
		return Field{Key: ErrorKey, Value: nil}
	}
	return Field{Key: ErrorKey, Value: err.Error()}
}

// Component tags the emitting component.
func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }

// Namespace tags the ID namespace an entry is about.
func Namespace(name string) Field { return Field{Key: NamespaceKey, Value: name} }
