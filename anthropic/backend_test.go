package anthropic_test

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/fwojciec/chronologue"
	"github.com/fwojciec/chronologue/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageClient struct {
	NewFn func(ctx context.Context, params sdk.MessageNewParams) (*sdk.Message, error)
}

func (c *messageClient) New(ctx context.Context, params sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	return c.NewFn(ctx, params)
}

func textMessage(text string) *sdk.Message {
	return &sdk.Message{Content: []sdk.ContentBlockUnion{{Type: "text", Text: text}}}
}

func TestBackend_Infer(t *testing.T) {
	t.Parallel()

	t.Run("returns the first text block", func(t *testing.T) {
		t.Parallel()

		var got sdk.MessageNewParams
		client := &messageClient{NewFn: func(_ context.Context, params sdk.MessageNewParams) (*sdk.Message, error) {
			got = params
			return textMessage(`{"whenSuggestion":"moments later"}`), nil
		}}
		temp := float32(0.2)

		resp, err := anthropic.NewBackend(client, anthropic.DefaultModel).Infer(context.Background(), chronologue.InferenceRequest{
			Instructions: "Be precise.",
			Prompt:       "<scene>Moments later.</scene>",
			Schema:       chronologue.SuggestionSchema(false),
			Temperature:  &temp,
		})

		require.NoError(t, err)
		assert.Equal(t, chronologue.StatusSuccess, resp.Status)
		assert.Equal(t, `{"whenSuggestion":"moments later"}`, resp.Content)
		assert.Equal(t, sdk.Model(anthropic.DefaultModel), got.Model)
		assert.Equal(t, int64(anthropic.DefaultMaxTokens), got.MaxTokens)
		require.Len(t, got.System, 1)
		assert.Contains(t, got.System[0].Text, "Be precise.")
		assert.Contains(t, got.System[0].Text, `"whenSuggestion"`)
		require.Len(t, got.Messages, 1)
	})

	t.Run("no text is a failure status", func(t *testing.T) {
		t.Parallel()

		client := &messageClient{NewFn: func(context.Context, sdk.MessageNewParams) (*sdk.Message, error) {
			return &sdk.Message{}, nil
		}}

		resp, err := anthropic.NewBackend(client, anthropic.DefaultModel).Infer(context.Background(), chronologue.InferenceRequest{Prompt: "x"})

		require.NoError(t, err)
		assert.Equal(t, chronologue.StatusFailure, resp.Status)
	})

	t.Run("request max tokens wins", func(t *testing.T) {
		t.Parallel()

		client := &messageClient{NewFn: func(_ context.Context, params sdk.MessageNewParams) (*sdk.Message, error) {
			assert.Equal(t, int64(256), params.MaxTokens)
			assert.Empty(t, params.System)
			return textMessage("{}"), nil
		}}

		_, err := anthropic.NewBackend(client, anthropic.DefaultModel).Infer(context.Background(), chronologue.InferenceRequest{Prompt: "x", MaxTokens: 256})
		require.NoError(t, err)
	})

	t.Run("propagates errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("dial tcp: refused")
		client := &messageClient{NewFn: func(context.Context, sdk.MessageNewParams) (*sdk.Message, error) {
			return nil, boom
		}}

		_, err := anthropic.NewBackend(client, anthropic.DefaultModel).Infer(context.Background(), chronologue.InferenceRequest{Prompt: "x"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestAPIError_Retryable(t *testing.T) {
	t.Parallel()

	assert.True(t, (&anthropic.APIError{StatusCode: 529}).Retryable())
	assert.True(t, (&anthropic.APIError{StatusCode: 429}).Retryable())
	assert.False(t, (&anthropic.APIError{StatusCode: 401}).Retryable())
}
