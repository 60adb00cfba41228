package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomJSONFormatter_KeyOrder(t *testing.T) {
	f := &CustomJSONFormatter{SortKeys: true}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "Settlement failed",
		Data: logrus.Fields{
			"zeta":       1,
			"route":      "disperse/eth",
			"request_id": "abc",
			"error":      errors.New("execution reverted"),
			"alpha":      "x",
		},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	line := string(out)
	order := []string{`"timestamp"`, `"level"`, `"request_id"`, `"message"`, `"route"`, `"error"`, `"alpha"`, `"zeta"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(line, key)
		require.GreaterOrEqual(t, idx, 0, key)
		assert.Greater(t, idx, last, "key %s out of order in %s", key, line)
		last = idx
	}

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "WARNING", decoded["level"])
	assert.Equal(t, "execution reverted", decoded["error"])
}

func TestCustomJSONFormatter_ErrorValues(t *testing.T) {
	f := &CustomJSONFormatter{}
	entry := logrus.NewEntry(logrus.New()).
		WithError(errors.New("Sum of percentages must be 100")).
		WithField("request_id", errors.New("rid")).
		WithField("cause", errors.New("nonce too low"))
	entry.Message = "Settlement request rejected"

	out, err := f.Format(entry)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "Sum of percentages must be 100", decoded["error"])
	assert.Equal(t, "rid", decoded["request_id"])
	assert.Equal(t, "nonce too low", decoded["cause"])
	assert.NotContains(t, string(out), "{}")
}

func TestColoredTextFormatter(t *testing.T) {
	f := &ColoredTextFormatter{}
	out, err := f.Format(&logrus.Entry{
		Time:    time.Now(),
		Level:   logrus.InfoLevel,
		Message: "hello",
		Data:    logrus.Fields{"route": "collect/eth"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "[INFO ]")
	assert.Contains(t, string(out), "hello")
	assert.Contains(t, string(out), "route")
}

func TestLoggingMiddleware_SetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	GetLogger().SetOutput(&buf)

	e := echo.New()
	e.GET("/ping", func(c echo.Context) error {
		id, _ := c.Get("request_id").(string)
		return c.String(http.StatusOK, id)
	}, LoggingMiddleware)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
	assert.Equal(t, rec.Body.String(), rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), "Request completed")

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "given-id", rec.Body.String())
}
