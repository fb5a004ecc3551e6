package ocr

import (
	"context"
	"strings"
	"time"

	"github.com/gardar/gradeflow/pkg/logging"
)

// Chain asks Primary first, bounded by Timeout, and Fallback when Primary
// fails or returns nothing. Either engine may be nil. Failures never escape:
// when both engines come up empty the result has empty text and zero
// confidence.
type Chain struct {
	Primary  Engine
	Fallback Engine
	Timeout  time.Duration
	Log      *logging.Logger
}

func (c *Chain) Name() string { return "chain" }

// Recognize implements Engine. The error is always nil.
func (c *Chain) Recognize(ctx context.Context, in Input) (Result, error) {
	return c.Read(ctx, in), nil
}

// Read runs the chain.
func (c *Chain) Read(ctx context.Context, in Input) Result {
	log := c.Log
	if log == nil {
		log = logging.Discard()
	}

	if c.Primary != nil {
		pctx, cancel := ctx, context.CancelFunc(func() {})
		if c.Timeout > 0 {
			pctx, cancel = context.WithTimeout(ctx, c.Timeout)
		}
		res, err := c.Primary.Recognize(pctx, in)
		cancel()
		switch {
		case err != nil:
			log.Warn(logging.MsgOCRServiceFailed, "engine", c.Primary.Name(), "error", err)
		case strings.TrimSpace(res.Text) == "":
			log.Debug(logging.MsgOCRServiceFailed, "engine", c.Primary.Name(), "error", "empty text")
		default:
			return res
		}
	}

	if c.Fallback != nil {
		res, err := c.Fallback.Recognize(ctx, in)
		switch {
		case err != nil:
			log.Warn(logging.MsgOCRLocalFailed, "engine", c.Fallback.Name(), "error", err)
		case strings.TrimSpace(res.Text) == "":
			log.Debug(logging.MsgOCRLocalFailed, "engine", c.Fallback.Name(), "error", "empty text")
		default:
			return res
		}
	}
	return Result{Engine: c.Name()}
}
