// Package log configures the process wide logrus logger and hands out
// tagged entries.
package log

import (
	"github.com/brickingsoft/errors"
	"github.com/sirupsen/logrus"
	"io"
	"strings"
	"sync"
)

var ErrInvalidLevel = errors.Define("invalid log level")

var hookOnce sync.Once

// Setup
// sets the level of the standard logger and installs the tag hook once.
func Setup(level string, out io.Writer) error {
	lvl, parseErr := logrus.ParseLevel(level)
	if parseErr != nil {
		return errors.From(
			ErrInvalidLevel,
			errors.WithMeta("pkg", "log"),
			errors.WithMeta("level", level),
			errors.WithWrap(parseErr),
		)
	}
	std := logrus.StandardLogger()
	std.SetLevel(lvl)
	if out != nil {
		std.SetOutput(out)
	}
	hookOnce.Do(func() {
		std.AddHook(new(TaggedHook))
	})
	return nil
}

func NewLogger(tag string) *logrus.Entry {
	return logrus.NewEntry(logrus.StandardLogger()).WithField("tag", tag)
}

// TaggedHook
// moves the tag field into a "[tag]: " message prefix.
type TaggedHook struct{}

func (h *TaggedHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *TaggedHook) Fire(entry *logrus.Entry) error {
	tagObj, loaded := entry.Data["tag"]
	if !loaded {
		return nil
	}
	tag, ok := tagObj.(string)
	if !ok {
		return nil
	}
	delete(entry.Data, "tag")
	entry.Message = "[" + tag + "]: " + strings.TrimPrefix(entry.Message, tag+": ")
	return nil
}
