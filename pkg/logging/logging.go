// Package logging builds the agent's structured logger: logrus routed to
// stderr for everything (including the recv/send frame traces the dispatcher
// emits at Debug level) and mirrored to the system log at INFO/ERROR and
// above, the way the original drone agent split printf-style debug output
// from syslog(3) calls.
package logging

import (
	"fmt"
	"log/syslog"
	"os"

	"github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"
)

// syslogLevels is the set of levels mirrored to the system log; Debug/Trace
// frame tracing stays on stderr only.
var syslogLevels = []logrus.Level{
	logrus.PanicLevel,
	logrus.FatalLevel,
	logrus.ErrorLevel,
	logrus.WarnLevel,
	logrus.InfoLevel,
}

// levelFilterHook restricts an existing hook to a subset of levels, since
// logrus's syslog hook otherwise fires on every level including the
// dispatcher's per-frame Debug traces.
type levelFilterHook struct {
	wrapped logrus.Hook
	levels  []logrus.Level
}

func (h *levelFilterHook) Levels() []logrus.Level { return h.levels }
func (h *levelFilterHook) Fire(e *logrus.Entry) error { return h.wrapped.Fire(e) }

// New builds the agent's logger at levelName ("trace", "debug", "info",
// "warn", "error"). Syslog is best-effort: if the local syslog daemon is
// unreachable (common when running udrone outside its target embedded
// environment), the logger still works with stderr output alone.
func New(levelName string) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	hook, err := lsyslog.NewSyslogHook("", "", syslog.LOG_DAEMON, "udrone")
	if err != nil {
		log.WithError(err).Warn("syslog unavailable, logging to stderr only")
		return log, nil
	}
	log.AddHook(&levelFilterHook{wrapped: hook, levels: syslogLevels})
	return log, nil
}

// Frame logs one inbound or outbound wire frame at Debug level, the
// recv/send tracing the protocol's external-interfaces section calls for.
func Frame(log logrus.FieldLogger, direction, peer string, seq uint32, typ string) {
	log.WithFields(logrus.Fields{
		"dir":  direction,
		"peer": peer,
		"seq":  seq,
		"type": typ,
	}).Debug("frame")
}
