package goroutine

import (
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/creator-escrow/internal/logger"
)

// SafeGo запускает горутину и пишет panic в лог вместо падения процесса.
func SafeGo(fn func()) {
	SafeGoNamed("", fn)
}

// SafeGoNamed - то же, что SafeGo, с именем задачи в логе.
func SafeGoNamed(task string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.WithFields(logrus.Fields{
					"task":  task,
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("panic в горутине")
			}
		}()
		fn()
	}()
}
