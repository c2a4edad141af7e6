package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/mlaskin/docvision/constants"
	"github.com/mlaskin/docvision/internal/common"
	"github.com/mlaskin/docvision/internal/fetch"
	"github.com/mlaskin/docvision/internal/llm"
)

// Config holds token budgets for the two extraction modes. Free-text
// replies are long, structured replies are a single small object.
type Config struct {
	TextMaxTokens   int64 // default 1024
	FieldsMaxTokens int64 // default 500
}

// Service orchestrates fetch -> prompt -> model -> parse for the two
// public operations. Each call is self-contained: its resource buffer is
// owned by the call and dropped when it returns, and cancellation comes
// from the caller's context.
type Service struct {
	logger  *slog.Logger
	cfg     Config
	fetcher *fetch.Fetcher
	invoker llm.Invoker
}

func NewService(logger *slog.Logger, cfg Config, fetcher *fetch.Fetcher, invoker llm.Invoker) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TextMaxTokens <= 0 {
		cfg.TextMaxTokens = 1024
	}
	if cfg.FieldsMaxTokens <= 0 {
		cfg.FieldsMaxTokens = 500
	}
	return &Service{logger: logger, cfg: cfg, fetcher: fetcher, invoker: invoker}
}

// ExtractText fetches the document behind identifier and returns its full
// text as markdown. "Model found no text" yields ""; only fetch and model
// failures are errors.
func (s *Service) ExtractText(ctx context.Context, identifier string) (string, error) {
	if err := common.NewValidator().Field("identifier", identifier, common.Required).Error(); err != nil {
		return "", err
	}

	start := time.Now()
	s.logger.Info("extract.text.start", "identifier", identifier)

	res, err := s.fetcher.Fetch(ctx, identifier)
	if err != nil {
		return "", err
	}

	reply, err := s.invoker.Invoke(ctx, llm.BuildTextPrompt(res.Bytes, res.MediaType), s.cfg.TextMaxTokens)
	if err != nil {
		return "", err
	}

	text := llm.ExtractPlainText(reply)
	s.logger.Info("extract.text.ok",
		"identifier", identifier,
		"media_type", res.MediaType,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// ExtractStructuredData fetches the document behind identifier and returns
// the requested fields as a mapping. An empty fields list means the
// default field set. The mapping holds exactly the keys the model
// returned: requested fields the model skipped are absent, fields it
// reported missing are nil. A reply without usable JSON degrades to an
// empty mapping; fetch and model failures propagate.
func (s *Service) ExtractStructuredData(ctx context.Context, identifier string, fields []string) (map[string]any, error) {
	if len(fields) == 0 {
		fields = constants.DefaultFields
	}
	if err := common.NewValidator().
		Field("identifier", identifier, common.Required).
		Field("fields", fields, common.Required, common.NonEmptyNames).
		Error(); err != nil {
		return nil, err
	}

	start := time.Now()
	s.logger.Info("extract.fields.start", "identifier", identifier, "fields", len(fields))

	res, err := s.fetcher.Fetch(ctx, identifier)
	if err != nil {
		return nil, err
	}

	reply, err := s.invoker.Invoke(ctx, llm.BuildStructuredPrompt(res.Bytes, res.MediaType, fields), s.cfg.FieldsMaxTokens)
	if err != nil {
		return nil, err
	}

	out := llm.ExtractStructuredJSON(reply, s.logger)
	s.logger.Info("extract.fields.ok",
		"identifier", identifier,
		"media_type", res.MediaType,
		"keys", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
