// Package server exposes the analyzer over HTTP.
//
// Routes:
//
//	GET  /health     liveness probe
//	POST /v1/score   {"text": "..."} -> document score with per-sentence scores
//	POST /v1/tokens  {"text": "..."} -> tokens of each sentence
//
// Every response carries an X-Request-ID header; score responses echo it
// in the body.
package server

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jpsa-nlp/jpsa/sentiment"
	"github.com/jpsa-nlp/jpsa/tokenizer"
)

// bodySlack leaves room for the JSON envelope and escapes.
const bodySlack = 64 << 10

// BodyLimit returns the request body limit that admits documents of up to
// maxInputBytes. Zero or less means no input limit and returns
// math.MaxInt32.
func BodyLimit(maxInputBytes int) int {
	if maxInputBytes <= 0 || maxInputBytes > math.MaxInt32-bodySlack {
		return math.MaxInt32
	}
	return maxInputBytes + bodySlack
}

// Server is the HTTP front end of an Analyzer.
type Server struct {
	app      *fiber.App
	analyzer *sentiment.Analyzer
	logger   *zap.Logger
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	bodyLimit int
	timeout   time.Duration
}

// WithLogger sets the request logger. Default: no logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBodyLimit sets the maximum request body size in bytes. Requests
// over the limit get 413.
func WithBodyLimit(n int) Option {
	return func(o *options) { o.bodyLimit = n }
}

// WithTimeout bounds the time spent analyzing one request. Zero means no
// bound. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// New returns a Server for a.
func New(a *sentiment.Analyzer, opts ...Option) *Server {
	o := options{
		logger:    zap.NewNop(),
		bodyLimit: BodyLimit(sentiment.DefaultMaxInputBytes),
		timeout:   30 * time.Second, //nolint:mnd
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{analyzer: a, logger: o.logger}
	s.app = fiber.New(fiber.Config{
		AppName:               "jpsa",
		BodyLimit:             o.bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	s.app.Use(s.logRequest)

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	v1 := s.app.Group("/v1")
	v1.Post("/score", withTimeout(o.timeout, s.score))
	v1.Post("/tokens", withTimeout(o.timeout, s.tokens))
	return s
}

// App returns the underlying fiber application, for tests and mounting.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

type textRequest struct {
	Text string `json:"text"`
}

type scoreResponse struct {
	RequestID string              `json:"request_id"`
	Score     float64             `json:"score"`
	Sentiment sentiment.Sentiment `json:"sentiment"`
	Sentences []sentiment.Pair    `json:"sentences"`
}

type tokensResponse struct {
	RequestID string              `json:"request_id"`
	Sentences [][]tokenizer.Token `json:"sentences"`
}

func withTimeout(d time.Duration, next fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		c.SetUserContext(ctx)
		return next(c)
	}
}

func (s *Server) score(c *fiber.Ctx) error {
	text, err := parseText(c)
	if err != nil {
		return err
	}
	r, err := s.analyzer.Analyze(c.UserContext(), text)
	if err != nil {
		return err
	}
	return c.JSON(scoreResponse{
		RequestID: requestID(c),
		Score:     r.Score,
		Sentiment: r.Sentiment,
		Sentences: r.Sentences,
	})
}

func (s *Server) tokens(c *fiber.Ctx) error {
	text, err := parseText(c)
	if err != nil {
		return err
	}
	sents, err := s.analyzer.Tokens(c.UserContext(), text)
	if err != nil {
		return err
	}
	if sents == nil {
		sents = [][]tokenizer.Token{}
	}
	return c.JSON(tokensResponse{RequestID: requestID(c), Sentences: sents})
}

func parseText(c *fiber.Ctx) (string, error) {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid JSON")
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "text is required")
	}
	return req.Text, nil
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
	return id
}

// statusOf maps an error to a status code and a client-facing message.
func statusOf(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, sentiment.ErrInputTooLarge):
		return fiber.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, sentiment.ErrNoSentences):
		return fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusServiceUnavailable, "analysis timed out"
	default:
		return fiber.StatusInternalServerError, "internal error"
	}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code, msg := statusOf(err)
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", requestID(c)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg, "request_id": requestID(c)})
}

func (s *Server) logRequest(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		// The error handler has not run yet.
		status, _ = statusOf(err)
	}
	s.logger.Debug("request",
		zap.String("request_id", requestID(c)),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)),
	)
	return err
}
