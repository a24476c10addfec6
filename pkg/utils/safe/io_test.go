package safe_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/plantops/pkg/utils/logging"
	"github.com/secmon-lab/plantops/pkg/utils/safe"
)

type failingCloser struct{ calls int }

func (c *failingCloser) Close() error {
	c.calls++
	return errors.New("disk gone")
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	return len(p) / 2, errors.New("connection reset")
}

func testContext(buf *bytes.Buffer) context.Context {
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	return logging.With(context.Background(), logger)
}

func TestClose(t *testing.T) {
	var buf bytes.Buffer
	ctx := testContext(&buf)

	safe.Close(ctx, nil)
	gt.Value(t, buf.Len()).Equal(0)

	c := &failingCloser{}
	safe.Close(ctx, c)
	gt.Value(t, c.calls).Equal(1)
	gt.String(t, buf.String()).Contains("disk gone")
	gt.String(t, buf.String()).Contains("failingCloser")
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	ctx := testContext(&buf)

	var out bytes.Buffer
	safe.Write(ctx, &out, []byte("leaf"))
	gt.Value(t, out.String()).Equal("leaf")
	gt.Value(t, buf.Len()).Equal(0)

	safe.Write(ctx, shortWriter{}, []byte("leaf"))
	gt.String(t, buf.String()).Contains("connection reset")
	gt.String(t, buf.String()).Contains(`"written":2`)
}
