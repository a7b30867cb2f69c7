package core

// Logger is the application-wide logging contract.
// Implementations may ship extra context (the acting user, tags) along with each entry.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
