package logx

import "fmt"

// Entry accumulates fields for a single log call. Entries are not safe
// for concurrent use; build one per call site.
type Entry struct {
	logger *Logger
	fields Fields
	data   interface{}
	err    error
}

func newEntry(logger *Logger) *Entry {
	return &Entry{
		logger: logger,
		fields: make(Fields),
	}
}

// WithField adds a field to the entry (chainable)
func (e *Entry) WithField(key string, value interface{}) *Entry {
	e.fields[key] = value
	return e
}

// WithFields adds multiple fields to the entry (chainable)
func (e *Entry) WithFields(fields Fields) *Entry {
	for k, v := range fields {
		e.fields[k] = v
	}
	return e
}

// WithError attaches err to the entry (chainable)
func (e *Entry) WithError(err error) *Entry {
	e.err = err
	return e
}

// WithStruct adds structured data (chainable)
func (e *Entry) WithStruct(data interface{}) *Entry {
	e.data = data
	return e
}

func (e *Entry) emit(level Level, msg string) {
	e.logger.log(level, msg, e.fields, e.data, e.err)
}

func (e *Entry) Trace(msg string) { e.emit(LevelTrace, msg) }
func (e *Entry) Debug(msg string) { e.emit(LevelDebug, msg) }
func (e *Entry) Info(msg string)  { e.emit(LevelInfo, msg) }
func (e *Entry) Warn(msg string)  { e.emit(LevelWarn, msg) }
func (e *Entry) Error(msg string) { e.emit(LevelError, msg) }

// Fatal logs at fatal level and exits
func (e *Entry) Fatal(msg string) {
	e.emit(LevelFatal, msg)
	e.logger.exit(1)
}

func (e *Entry) Debugf(format string, args ...interface{}) {
	e.emit(LevelDebug, fmt.Sprintf(format, args...))
}

func (e *Entry) Infof(format string, args ...interface{}) {
	e.emit(LevelInfo, fmt.Sprintf(format, args...))
}

func (e *Entry) Warnf(format string, args ...interface{}) {
	e.emit(LevelWarn, fmt.Sprintf(format, args...))
}

func (e *Entry) Errorf(format string, args ...interface{}) {
	e.emit(LevelError, fmt.Sprintf(format, args...))
}
