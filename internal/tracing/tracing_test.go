package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/AayushPaigwar/resume-sync-ai/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abc...xyz", TruncateString("abcdefghijklmnopqrstuvwxyz", 9))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
	// 按字符而不是字节截断
	assert.Equal(t, "简...历", TruncateString("简历内容很长的文本历", 5))
}

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("a"))
	assert.Equal(t, "a*", MaskPII("ab"))
	assert.Equal(t, "a**d", MaskPII("abcd"))
	assert.Equal(t, "jo**********om", MaskPII("john@email.com"))
}

func TestSafeAttributeValue(t *testing.T) {
	assert.Equal(t, "jo**********om", SafeAttributeValue("user.email", "john@email.com", 100))
	assert.Equal(t, "plain", SafeAttributeValue("file.media_type", "plain", 100))
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := tp.Tracer("test").Start(context.Background(), "op")

	RecordError(span, errors.New("boom"), ErrorTypeLLM)
	RecordDegradation(span, "degraded", errors.New("primary failed"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.NotEmpty(t, spans[0].Events())

	var names []string
	for _, ev := range spans[0].Events() {
		names = append(names, ev.Name)
	}
	assert.Contains(t, names, "analysis.degraded")

	// nil 参数不应 panic
	RecordError(nil, errors.New("x"), ErrorTypeDB)
	RecordError(span, nil, ErrorTypeDB)
}

func TestInitTracerProvider_Disabled(t *testing.T) {
	shutdown, err := InitTracerProvider(context.Background(), config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = InitTracerProvider(context.Background(), config.TracingConfig{Enabled: true})
	assert.Error(t, err, "启用但未配置 endpoint 应报错")
}
