package plugin

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Logger 플러그인용 로거 인터페이스
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// ZerologLogger adapts a zerolog logger
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger 새 로거 생성; 모든 로그에 component 필드가 붙는다
func NewZerologLogger(base zerolog.Logger, component string) *ZerologLogger {
	return &ZerologLogger{log: base.With().Str("component", component).Logger()}
}

// Debug 디버그 로그
func (l *ZerologLogger) Debug(msg string, args ...interface{}) {
	l.log.Debug().Msg(fmt.Sprintf(msg, args...))
}

// Info 정보 로그
func (l *ZerologLogger) Info(msg string, args ...interface{}) {
	l.log.Info().Msg(fmt.Sprintf(msg, args...))
}

// Warn 경고 로그
func (l *ZerologLogger) Warn(msg string, args ...interface{}) {
	l.log.Warn().Msg(fmt.Sprintf(msg, args...))
}

// Error 에러 로그
func (l *ZerologLogger) Error(msg string, args ...interface{}) {
	l.log.Error().Msg(fmt.Sprintf(msg, args...))
}

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
