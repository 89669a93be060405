package trace

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledIsNoop(t *testing.T) {
	require.NoError(t, Init(false))
	ctx, span := StartSpan(context.Background(), "refresh")
	span.End()
	assert.False(t, span.SpanContext().IsValid())
	assert.Nil(t, LogAttrs(ctx))
}

func TestEnabledExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWriter(true, &buf))
	t.Cleanup(func() { Shutdown(context.Background()) })

	ctx, span := StartSpan(context.Background(), "refresh")
	assert.True(t, span.SpanContext().IsValid())
	assert.Len(t, LogAttrs(ctx), 2)
	span.End()

	assert.Contains(t, buf.String(), `"Name":"refresh"`)
}
