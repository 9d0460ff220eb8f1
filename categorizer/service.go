package categorizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrNoBackend is returned by the Disabled backend.
var ErrNoBackend = errors.New("no categorization backend configured")

// Request is a single categorization input. Image is nil for text-only reports.
type Request struct {
	Caption string
	Image   *Image
}

// Result always holds a member of Categories.
type Result struct {
	Category Category `json:"category"`
}

// Backend performs one classification call against a model provider and
// returns the raw category text it produced. The text is untrusted.
type Backend interface {
	Classify(ctx context.Context, req Request) (string, error)
	Name() string
}

// Service maps (caption, optional image) pairs onto exactly one Category.
// It is safe for concurrent use as long as its Backend is.
type Service struct {
	backend Backend
	timeout time.Duration
	logger  *log.Entry
}

type Option func(*Service)

// WithTimeout bounds each backend call. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLogger replaces the default logrus entry.
func WithLogger(l *log.Entry) Option {
	return func(s *Service) { s.logger = l }
}

func New(backend Backend, opts ...Option) *Service {
	if backend == nil {
		backend = Disabled{}
	}
	s := &Service{
		backend: backend,
		logger:  log.WithField("component", "categorizer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("backend", backend.Name())
	return s
}

// Categorize is Classify for callers holding a caption and an optional image.
func (s *Service) Categorize(ctx context.Context, caption string, image *Image) Category {
	return s.Classify(ctx, Request{Caption: caption, Image: image}).Category
}

// Classify never fails: any backend error, malformed output, timeout or panic
// yields Other.
func (s *Service) Classify(ctx context.Context, req Request) Result {
	res, err := s.classify(ctx, req)
	if err != nil {
		s.logger.WithError(err).WithField("has_image", req.Image != nil).
			Error("Error in categorize flow, defaulting to \"other\"")
		return Result{Category: Other}
	}
	return res
}

func (s *Service) classify(ctx context.Context, req Request) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.backend.Classify(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("%s classify: %w", s.backend.Name(), err)
	}

	category, ok := Parse(raw)
	if !ok {
		s.logger.Warnf("Categorization returned invalid category %q, defaulting to \"other\"", raw)
		return Result{Category: Other}, nil
	}
	return Result{Category: category}, nil
}

// Disabled is the backend used when no provider is configured.
type Disabled struct{}

func (Disabled) Name() string { return "disabled" }

func (Disabled) Classify(context.Context, Request) (string, error) {
	return "", ErrNoBackend
}
