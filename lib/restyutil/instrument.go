package restyutil

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentOutput receives a dump of every completed exchange while debug
// logging is enabled.
type InstrumentOutput interface {
	Write(dump Dump)
}

type instrumentCtx struct {
	output    InstrumentOutput
	tracer    trace.Tracer
	idcounter *uint64
}

// `tracer` can be nil, it will default to a library name of "resty"
// `output` can also be nil, in which case request/response dumps are skipped
// but spans are still recorded.
func InstrumentClient(client *resty.Client, tracer trace.Tracer, output InstrumentOutput) {
	if tracer == nil {
		tracer = otel.Tracer("resty")
	}

	var idcounter uint64
	i := instrumentCtx{output: output, tracer: tracer, idcounter: &idcounter}
	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

type messageIdKeyType struct{}

var messageIdKey messageIdKeyType

func (i instrumentCtx) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, _ := i.tracer.Start(req.Context(), req.Method)

	messageId := fmt.Sprintf("%04d", atomic.AddUint64(i.idcounter, 1))
	ctx = context.WithValue(ctx, messageIdKey, messageId)
	slog.DebugContext(
		ctx, "start request",
		"method", req.Method,
		"url", req.URL,
		"message_id", messageId,
	)

	req.SetContext(ctx)
	return nil
}

func (i instrumentCtx) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)

	// setting request attributes here since res.Request.RawRequest is nil in onBeforeRequest
	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}

	messageId, _ := ctx.Value(messageIdKey).(string)
	if i.output != nil && slog.Default().Enabled(ctx, slog.LevelDebug) {
		i.output.Write(newDump(messageId, res))
	}
	slog.DebugContext(
		ctx, "request finished",
		"method", res.Request.Method,
		"url", res.Request.URL,
		"status", res.StatusCode(),
		"duration", res.Time(),
		"message_id", messageId,
	)

	return nil
}

func (i instrumentCtx) onError(req *resty.Request, err error) {
	ctx := req.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	defer span.RecordError(err)
	defer span.SetStatus(codes.Error, "request failed")

	messageId, _ := ctx.Value(messageIdKey).(string)
	slog.ErrorContext(
		ctx, "request failed",
		"method", req.Method,
		"url", req.URL,
		"err", err,
		"message_id", messageId,
	)

	span.SetName(fmt.Sprintf("http %s", req.Method))
	if req.RawRequest == nil {
		return
	}
	span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
}
