package logx

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/types"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/x/timex"
)

// Formatter renders "HH:MM:SS.mmm [  tid] (L) (module): message".
type Formatter struct {
	Clock    func() uint32
	ThreadID func() uint32
}

func (f *Formatter) Format(e *logrus.Entry) ([]byte, error) {
	var us, tid uint32
	if f.Clock != nil {
		us = f.Clock()
	}
	if f.ThreadID != nil {
		tid = f.ThreadID()
	}
	h, m, s, ms := timex.SplitMicros(us)

	var ch byte
	if lv, ok := e.Data[fieldLevel].(types.LogLevel); ok {
		ch = lv.Char()
	} else {
		ch = fromLogrus(e.Level).Char()
	}
	module, _ := e.Data[fieldModule].(string)

	line := fmt.Sprintf("%02d:%02d:%02d.%03d [%5d] (%c) (%s): %s\n",
		h, m, s, ms, tid, ch, module, e.Message)
	return []byte(line), nil
}

func fromLogrus(l logrus.Level) types.LogLevel {
	switch l {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return types.LogError
	case logrus.WarnLevel:
		return types.LogWarning
	case logrus.InfoLevel:
		return types.LogInfo
	case logrus.DebugLevel:
		return types.LogVerbose
	default:
		return types.LogDebug
	}
}
