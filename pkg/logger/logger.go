package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	mu         sync.Mutex
	infoLogger *zap.Logger

	serviceName = "default"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Init собирает продакшн-логгеры. Без явного вызова Info/Error/Fatal
// соберут дефолтные сами.
func Init() error {
	l, err := zap.NewProduction(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	mu.Lock()
	infoLogger = l
	mu.Unlock()
	return nil
}

func get() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if infoLogger == nil {
		infoLogger, _ = zap.NewProduction(zap.AddCallerSkip(1))
	}
	return infoLogger
}

func Info(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	get().With(
		zap.String("service", serviceName),
	).Info(msg)
}

func Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	get().With(
		zap.String("service", serviceName),
	).Error(msg)
}

func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	get().With(
		zap.String("service", serviceName),
	).Fatal(msg)
}
