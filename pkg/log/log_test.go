package log_test

import (
	"bytes"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/staticd/pkg/log"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestTaggedHook(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := logrus.New()
	logger.SetOutput(buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
	logger.AddHook(new(log.TaggedHook))

	logger.WithField("tag", "server").Info("server: listening")
	require.Contains(t, buf.String(), `msg="[server]: listening"`)
	require.NotContains(t, buf.String(), "tag=")

	buf.Reset()
	logger.WithField("other", 1).Info("plain")
	require.Contains(t, buf.String(), "msg=plain")
}

func TestSetup(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, log.Setup("debug", buf))
	defer logrus.SetLevel(logrus.InfoLevel)
	require.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	log.NewLogger("test").Debug("hello")
	require.Contains(t, buf.String(), "[test]: hello")

	err := log.Setup("loud", nil)
	require.True(t, errors.Is(err, log.ErrInvalidLevel))
}
