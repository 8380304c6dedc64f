package service

import (
	"context"
	"strconv"
	"time"

	kitmetrics "github.com/go-kit/kit/metrics"

	"taskpipe/internal/domain/entity"
	"taskpipe/internal/port/primary"
)

// instrumentingMiddleware wraps an IngestService and records request count
// and duration per method.
type instrumentingMiddleware struct {
	reqCount    kitmetrics.Counter
	reqDuration kitmetrics.Histogram
	svc         primary.IngestService
}

// NewInstrumentingMiddleware decorates an IngestService with request
// metrics labeled by method and error.
func NewInstrumentingMiddleware(
	reqCount kitmetrics.Counter,
	reqDuration kitmetrics.Histogram,
	svc primary.IngestService,
) primary.IngestService {
	return &instrumentingMiddleware{
		reqCount:    reqCount,
		reqDuration: reqDuration,
		svc:         svc,
	}
}

// SubmitTask ...
func (s *instrumentingMiddleware) SubmitTask(ctx context.Context, sub entity.TaskSubmission) (record *entity.TaskRecord, err error) {
	defer func(startTime time.Time) {
		labels := []string{
			"method", "SubmitTask",
			"error", strconv.FormatBool(err != nil),
		}
		s.reqCount.With(labels...).Add(1)
		s.reqDuration.With(labels...).Observe(time.Since(startTime).Seconds())
	}(time.Now())
	return s.svc.SubmitTask(ctx, sub)
}
