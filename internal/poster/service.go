// Package poster composes classification, resolution and posting into the
// single "send this message to this URL" operation used by the CLI and the
// local API.
package poster

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/bbs"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/logger"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/metrics"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/retry"
)

// SageEmail is the mail-field value that asks the server not to bump the
// thread.
const SageEmail = "sage"

var (
	// ErrInvalidURL means the input could not be parsed as a URL at all.
	ErrInvalidURL = errors.New("invalid url")
	// ErrEmptyMessage means there was nothing to post.
	ErrEmptyMessage = errors.New("message is empty")
)

// Request is one message to post.
type Request struct {
	URL     string
	Message string
	Name    string
	// Sage sends SageEmail in the mail field.
	Sage bool
}

// Result describes a post attempt. On failure it holds whatever was
// learned before the error.
type Result struct {
	AttemptID string
	ThreadURL string
	Engine    bbs.Engine
	Charset   string
	Title     string
}

// Config configures a Service.
type Config struct {
	// HTTPClient is used for every request. Nil means http.DefaultClient.
	HTTPClient *http.Client
	// UserAgent overrides bbs.UserAgent when set.
	UserAgent string
	// Resolve controls retries of resolution. Posting is never retried.
	Resolve retry.Config
	// Concurrency bounds Broadcast. Values below one mean one.
	Concurrency int
}

// Service posts messages. It holds no mutable state and is safe for
// concurrent use.
type Service struct {
	bbsOpts     []bbs.Option
	resolver    *bbs.Resolver
	retry       retry.Config
	concurrency int
	metrics     *metrics.Metrics
	log         logger.Logger
	newID       func() string
}

// NewService creates a Service. log and m may be nil.
func NewService(cfg Config, log logger.Logger, m *metrics.Metrics) *Service {
	log = logger.OrNop(log)

	opts := []bbs.Option{
		bbs.WithHTTPClient(cfg.HTTPClient),
		bbs.WithUserAgent(cfg.UserAgent),
	}

	retryCfg := cfg.Resolve
	if retryCfg.MaxAttempts <= 0 {
		retryCfg.MaxAttempts = 1
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Service{
		bbsOpts:     opts,
		resolver:    bbs.NewResolver(withLogger(opts, log)...),
		retry:       retryCfg,
		concurrency: concurrency,
		metrics:     m,
		log:         log,
		newID:       uuid.NewString,
	}
}

// Classify parses raw and classifies it.
func (s *Service) Classify(raw string) (bbs.Classification, error) {
	u, err := parseURL(raw)
	if err != nil {
		return bbs.Classification{}, err
	}
	return bbs.Classify(u)
}

// Resolve classifies raw and resolves it to a thread, retrying temporary
// fetch failures as configured.
func (s *Service) Resolve(ctx context.Context, raw string) (bbs.Target, error) {
	c, err := s.Classify(raw)
	if err != nil {
		return bbs.Target{}, err
	}
	return s.resolve(ctx, c, s.log)
}

func (s *Service) resolve(ctx context.Context, c bbs.Classification, log logger.Logger) (bbs.Target, error) {
	cfg := s.retry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		s.metrics.IncResolveRetry()
		log.Warn("Resolve failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Error(err),
		)
	}

	start := time.Now()
	var target bbs.Target
	err := retry.Retry(ctx, cfg, func() error {
		var resolveErr error
		target, resolveErr = s.resolver.Resolve(ctx, c)
		return resolveErr
	})
	s.metrics.ObserveResolve(c.Kind.String(), Outcome(err), time.Since(start))

	if err != nil {
		return bbs.Target{}, err
	}
	return target, nil
}

// Post classifies, resolves and posts req.Message. The POST itself is sent
// at most once.
func (s *Service) Post(ctx context.Context, req Request) (Result, error) {
	res := Result{AttemptID: s.newID()}
	log := s.log.With(
		logger.String("attempt_id", res.AttemptID),
		logger.String("url", req.URL),
	)

	engine := "unknown"
	finish := func(err error) (Result, error) {
		outcome := Outcome(err)
		s.metrics.RecordPost(engine, outcome)
		if err != nil {
			log.Warn("Post failed", logger.String("outcome", outcome), logger.Error(err))
			return res, err
		}
		log.Info("Posted",
			logger.String("thread", res.ThreadURL),
			logger.String("charset", res.Charset),
		)
		return res, nil
	}

	if strings.TrimSpace(req.Message) == "" {
		return finish(ErrEmptyMessage)
	}

	defer s.metrics.TrackInFlight()()

	c, err := s.Classify(req.URL)
	if err != nil {
		return finish(err)
	}
	engine = string(c.Kind.Engine())
	res.Engine = c.Kind.Engine()

	target, err := s.resolve(ctx, c, log)
	if err != nil {
		return finish(err)
	}
	res.ThreadURL = target.URL.String()
	res.Charset = target.Charset
	res.Title = target.Title

	thread, err := bbs.NewThread(target.URL, withLogger(s.bbsOpts, log)...)
	if err != nil {
		return finish(err)
	}
	res.Engine = thread.Engine()
	engine = string(thread.Engine())

	email := ""
	if req.Sage {
		email = SageEmail
	}

	if err := thread.Post(ctx, target.Charset, req.Name, email, req.Message); err != nil {
		return finish(fmt.Errorf("post to %s: %w", res.ThreadURL, err))
	}
	return finish(nil)
}

// withLogger returns a copy of opts with log appended, leaving opts
// untouched for concurrent callers.
func withLogger(opts []bbs.Option, log logger.Logger) []bbs.Option {
	out := make([]bbs.Option, 0, len(opts)+1)
	out = append(out, opts...)
	return append(out, bbs.WithLogger(log))
}

func parseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	return u, nil
}

// Outcome maps an error from this package or bbs to a metrics outcome label.
func Outcome(err error) string {
	var (
		classErr *bbs.ClassificationError
		discErr  *bbs.DiscoveryError
		fetchErr *bbs.FetchError
		encErr   *bbs.EncodingError
	)

	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrInvalidURL):
		return metrics.OutcomeInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	case errors.As(err, &classErr):
		return metrics.OutcomeUnsupported
	case errors.As(err, &encErr):
		return metrics.OutcomeEncoding
	case errors.As(err, &discErr):
		return metrics.OutcomeDiscovery
	case errors.As(err, &fetchErr):
		return metrics.OutcomeFetch
	default:
		return metrics.OutcomeError
	}
}
