package poster

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/logger"
)

// Delivery is the result of one URL in a Broadcast.
type Delivery struct {
	URL    string
	Result Result
	Err    error
}

// Broadcast posts the same message to every URL in urls, at most
// Config.Concurrency at a time. One failure does not stop the others.
// Deliveries are returned in the order of urls; the returned error joins
// every failure and is nil only when all posts succeeded.
func (s *Service) Broadcast(ctx context.Context, urls []string, req Request) ([]Delivery, error) {
	deliveries := make([]Delivery, len(urls))

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, target := range urls {
		g.Go(func() error {
			r := req
			r.URL = target
			res, err := s.Post(ctx, r)
			deliveries[i] = Delivery{URL: target, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, o := range deliveries {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}

	s.log.Info("Broadcast finished",
		logger.Int("targets", len(urls)),
		logger.Int("failed", len(errs)),
	)

	return deliveries, errors.Join(errs...)
}
