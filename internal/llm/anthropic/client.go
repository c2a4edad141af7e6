package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/mlaskin/docvision/internal/common"
	"github.com/mlaskin/docvision/internal/llm"
)

var _ llm.Invoker = (*Client)(nil)

// Invoke implements llm.Invoker against the Anthropic Messages API. The
// request's parts are sent as one user message; the reply comes back as
// ordered tagged blocks. No retry happens here: a failed call surfaces as
// a model error and the caller decides whether to try again.
func (c *Client) Invoke(ctx context.Context, req llm.Request, maxTokens int64) (*llm.Reply, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.invoke.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"parts", len(req.Parts),
		"max_tokens", maxTokens,
	)

	blocks := make([]sdk.ContentBlockParamUnion, 0, len(req.Parts))
	for _, part := range req.Parts {
		switch part.Kind {
		case llm.PartText:
			blocks = append(blocks, sdk.NewTextBlock(part.Text))
		case llm.PartImage:
			blocks = append(blocks, sdk.NewImageBlockBase64(
				part.MediaType,
				base64.StdEncoding.EncodeToString(part.Data),
			))
		case llm.PartDocument:
			blocks = append(blocks, sdk.NewDocumentBlock(sdk.Base64PDFSourceParam{
				Data: base64.StdEncoding.EncodeToString(part.Data),
			}))
		default:
			return nil, common.ModelError(fmt.Sprintf("unsupported part kind %q", part.Kind), nil)
		}
	}

	message, err := c.api.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.cfg.Model),
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			{
				Role:    sdk.MessageParamRoleUser,
				Content: blocks,
			},
		},
	})
	if err != nil {
		c.logger.Error("llm.invoke.error",
			"req_id", rid,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.ModelError("messages api call failed", err)
	}

	reply := &llm.Reply{Blocks: make([]llm.ReplyBlock, 0, len(message.Content))}
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case sdk.TextBlock:
			reply.Blocks = append(reply.Blocks, llm.ReplyBlock{Kind: "text", Text: b.Text})
		default:
			reply.Blocks = append(reply.Blocks, llm.ReplyBlock{Kind: string(block.Type)})
		}
	}

	c.logger.Info("llm.invoke.ok",
		"req_id", rid,
		"blocks", len(reply.Blocks),
		"input_tokens", message.Usage.InputTokens,
		"output_tokens", message.Usage.OutputTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return reply, nil
}
