package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with Med-Aid specific field helpers
type Logger struct {
	*logrus.Logger
}

// New creates a new logger instance
func New(level string) *Logger {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	log.SetOutput(os.Stdout)

	return &Logger{Logger: log}
}

// WithFields creates a new logger entry with the specified fields
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithField creates a new logger entry with a single field
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithError creates a new logger entry with an error field
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithService creates a new logger entry with service name field
func (l *Logger) WithService(service string) *logrus.Entry {
	return l.Logger.WithField("service", service)
}

// WithSession creates a new logger entry with a stream session ID field
func (l *Logger) WithSession(sessionID string) *logrus.Entry {
	return l.Logger.WithField("session_id", sessionID)
}

// WithPatientID creates a new logger entry with patient ID field
func (l *Logger) WithPatientID(patientID string) *logrus.Entry {
	return l.Logger.WithField("patient_id", patientID)
}

// PriceQuery logs one price-comparison query with its parameters
func (l *Logger) PriceQuery(sessionID, medicine, pack, pin string) {
	l.Logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"medicine":   medicine,
		"pack":       pack,
		"pin":        pin,
	}).Info("Price query started")
}

// StreamEvent logs lifecycle events of a relay stream session
func (l *Logger) StreamEvent(sessionID, event string, details map[string]interface{}) {
	l.Logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"event":      event,
		"details":    details,
	}).Info("Stream event")
}

// UpstreamAttempt logs one upstream fetch attempt
func (l *Logger) UpstreamAttempt(sessionID string, attempt int, success bool, err error) {
	entry := l.Logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"attempt":    attempt,
		"success":    success,
	})
	if err != nil {
		entry = entry.WithError(err)
	}

	if success {
		entry.Info("Upstream connection established")
	} else {
		entry.Warn("Upstream connection attempt failed")
	}
}

// MalformedLine logs a dropped stream line that failed to parse
func (l *Logger) MalformedLine(sessionID, line string, err error) {
	l.Logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"line":       line,
	}).WithError(err).Warn("Dropped malformed stream line")
}

// Notification logs a reminder/confirmation dispatch result
func (l *Logger) Notification(channel, recipient string, success bool, err error) {
	entry := l.Logger.WithFields(logrus.Fields{
		"channel":   channel,
		"recipient": recipient,
		"success":   success,
	})
	if err != nil {
		entry = entry.WithError(err)
	}

	if success {
		entry.Info("Notification sent")
	} else {
		entry.Warn("Notification delivery failed")
	}
}
