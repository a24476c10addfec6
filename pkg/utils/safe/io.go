package safe

import (
	"context"
	"fmt"
	"io"

	"github.com/secmon-lab/plantops/pkg/utils/logging"
)

// Close closes c and logs the failure instead of returning it. A nil c is ignored.
func Close(ctx context.Context, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Warn("close failed",
			"error", err,
			"closer", fmt.Sprintf("%T", c),
		)
	}
}

// Write writes data to w and logs a failed or short write. Used for response bodies
// where the status line is already sent and the error has nowhere else to go.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	n, err := w.Write(data)
	if err != nil {
		logging.From(ctx).Warn("write failed",
			"error", err,
			"written", n,
			"size", len(data),
		)
	}
}
