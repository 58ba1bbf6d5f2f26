package logsvc

import (
	"log"
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academic"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, academic.Actor
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var actorSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		if actor, ok := arg.(academic.Actor); ok {
			if !actorSet { // only set one Actor
				rollbar.SetPerson(strconv.Itoa(actor.AccountID), string(actor.Role), actor.Email)
				actorSet = true
			}
		} else {
			newArgs = append(newArgs, arg)
		}
	}
	if !actorSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

// print writes the prepared `args` (msg first, actor removed) to the std logger.
func (l RollbarLogger) print(level string, args []interface{}) {
	l.std.Printf("%s: %s", level, args[0])
	for _, arg := range args[1:] {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	args = l.prepare(msg, args)
	rollbar.Debug(args...)
	l.print("DEBUG", args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	args = l.prepare(msg, args)
	rollbar.Info(args...)
	l.print("INFO", args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	args = l.prepare(msg, args)
	rollbar.Warning(args...)
	l.print("WARN", args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	args = l.prepare(msg, args)
	rollbar.Error(args...)
	l.print("ERROR", args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	args = l.prepare(msg, args)
	rollbar.Critical(args...)
	rollbar.Wait()
	l.print("FATAL", args)
	l.std.Fatal(msg)
}
