package logger

import (
	"LOTR_RAG/backend/go/internal/models"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry with the fields every line of a service carries.
type Logger struct {
	entry *logrus.Entry
}

func newFormatter() logrus.Formatter {
	return &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	}
}

// Init configures a JSON logger on stdout for serviceName. An unknown level
// falls back to info.
func Init(serviceName, level string) Logger {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base := logrus.New()
	base.SetFormatter(newFormatter())
	base.SetOutput(os.Stdout)
	base.SetLevel(lvl)
	return Logger{entry: base.WithField("service_name", serviceName)}
}

// New builds a logger writing to w at debug level. Tests pass io.Discard or a
// buffer.
func New(serviceName string, w io.Writer) Logger {
	base := logrus.New()
	base.SetFormatter(newFormatter())
	base.SetOutput(w)
	base.SetLevel(logrus.DebugLevel)
	return Logger{entry: base.WithField("service_name", serviceName)}
}

// Nop returns a logger that drops everything.
func Nop() Logger {
	return New("nop", io.Discard)
}

// AddHook attaches a hook to the underlying logrus logger.
func (l Logger) AddHook(hook logrus.Hook) {
	l.entry.Logger.AddHook(hook)
}

// WithRequest attaches request information.
func (l Logger) WithRequest(req models.RequestInfo) Logger {
	return Logger{entry: l.entry.WithField("request_info", req)}
}

// WithError attaches an error.
func (l Logger) WithError(err error) Logger {
	return Logger{entry: l.entry.WithError(err)}
}

// WithField attaches a single business field.
func (l Logger) WithField(key string, value interface{}) Logger {
	return Logger{entry: l.entry.WithField(key, value)}
}

// WithPayload attaches arbitrary business data under "payload".
func (l Logger) WithPayload(payload map[string]interface{}) Logger {
	return Logger{entry: l.entry.WithField("payload", payload)}
}

func (l Logger) Info(message string) {
	l.entry.Info(message)
}

func (l Logger) Warn(message string) {
	l.entry.Warn(message)
}

func (l Logger) Error(message string) {
	l.entry.Error(message)
}

func (l Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Fatal logs and terminates the process.
func (l Logger) Fatal(message string) {
	l.entry.Fatal(message)
}
