package shell

import (
	"log/slog"
)

// ImpactStyle is the strength of an impact haptic.
type ImpactStyle string

const (
	ImpactLight  ImpactStyle = "light"
	ImpactMedium ImpactStyle = "medium"
	ImpactHeavy  ImpactStyle = "heavy"
)

// NotificationType is the intent of a notification haptic.
type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyWarning NotificationType = "warning"
	NotifyError   NotificationType = "error"
)

// Shell is the capability surface of the host mini-app runtime. Every call is
// best-effort and cosmetic; task semantics never depend on it.
type Shell interface {
	Ready()
	Expand()
	Impact(style ImpactStyle)
	Notify(kind NotificationType)
	Selection()
	SendData(payload any)
}

// Noop ignores every signal. It is the default when no host is present.
type Noop struct{}

func (Noop) Ready()                  {}
func (Noop) Expand()                 {}
func (Noop) Impact(ImpactStyle)      {}
func (Noop) Notify(NotificationType) {}
func (Noop) Selection()              {}
func (Noop) SendData(any)            {}

// Logger records every signal at debug level.
type Logger struct {
	logger *slog.Logger
}

// NewLogger returns a shell that writes signals to logger.
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (l *Logger) Ready()  { l.logger.Debug("shell ready") }
func (l *Logger) Expand() { l.logger.Debug("shell expand") }

func (l *Logger) Impact(style ImpactStyle) {
	l.logger.Debug("haptic impact", slog.String("style", string(style)))
}

func (l *Logger) Notify(kind NotificationType) {
	l.logger.Debug("haptic notification", slog.String("type", string(kind)))
}

func (l *Logger) Selection() { l.logger.Debug("haptic selection") }

func (l *Logger) SendData(payload any) {
	l.logger.Debug("shell data", slog.Any("payload", payload))
}

// Tee forwards every signal to each shell in order.
type Tee []Shell

func (t Tee) Ready() {
	for _, s := range t {
		s.Ready()
	}
}

func (t Tee) Expand() {
	for _, s := range t {
		s.Expand()
	}
}

func (t Tee) Impact(style ImpactStyle) {
	for _, s := range t {
		s.Impact(style)
	}
}

func (t Tee) Notify(kind NotificationType) {
	for _, s := range t {
		s.Notify(kind)
	}
}

func (t Tee) Selection() {
	for _, s := range t {
		s.Selection()
	}
}

func (t Tee) SendData(payload any) {
	for _, s := range t {
		s.SendData(payload)
	}
}
