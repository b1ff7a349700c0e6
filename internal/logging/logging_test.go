package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	logger, closer, err := New(Options{Level: "debug", NoColors: true})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger, closer, err = New(Options{})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	_, _, err = New(Options{Level: "chatty"})
	assert.ErrorContains(t, err, "parse log level")
}

func TestNew_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "mudra.log")

	logger, closer, err := New(Options{File: file, MaxSizeMB: 1, NoColors: true})
	require.NoError(t, err)

	logger.WithFields(logrus.Fields{"component": "test", "gesture": "open"}).Info("Gesture changed")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Gesture changed")
	assert.Contains(t, string(data), "open")
}

func TestFormatter_FieldsOrder(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(newFormatter(true))

	logger.WithFields(logrus.Fields{
		"confidence": 0.9,
		"zz":         "last",
		"component":  "app",
	}).Info("hello")

	line := buf.String()
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("component")), bytes.Index(buf.Bytes(), []byte("confidence")), line)
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("confidence")), bytes.Index(buf.Bytes(), []byte("zz")), line)
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	logger := logrus.New()
	assert.Same(t, logger, OrDiscard(logger))
}
