package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/session"
	"github.com/MKhiriev/go-proc-box/internal/tools"
	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

const helloMD5 = "5eb63bbbe01eeed093cb22bb8f5acdc3"

// brokenTool always fails.
type brokenTool struct{}

func (brokenTool) Name() string               { return "broken" }
func (brokenTool) BriefDescription() string   { return "always fails" }
func (brokenTool) LongDescription() string    { return "Returns an error for every input." }
func (brokenTool) ProcessableTypes() []string { return nil }

func (brokenTool) ProcessFile(context.Context, []byte, string) (models.ToolOutput, error) {
	return models.ToolOutput{}, errors.New("boom")
}

func uploadHello(t *testing.T, f processingFixture, sess *session.Session) string {
	t.Helper()
	uri, err := f.content.AddFile(context.Background(), sess, "hello.txt", strings.NewReader("hello world"), false)
	require.NoError(t, err)
	return uri
}

func TestProcessing_AvailableTools(t *testing.T) {
	f := newTestProcessing(t)

	names := func(ds []models.ToolDescriptor) []string {
		out := make([]string, 0, len(ds))
		for _, d := range ds {
			out = append(out, d.Name)
		}
		return out
	}

	text := names(f.svc.AvailableTools("text/plain"))
	assert.Contains(t, text, tools.MD5ToolName)
	assert.NotContains(t, text, tools.ColorInverterToolName)

	png := names(f.svc.AvailableTools("image/png"))
	assert.Contains(t, png, tools.MD5ToolName)
	assert.Contains(t, png, tools.ColorInverterToolName)
}

func TestProcessing_ProcessMD5(t *testing.T) {
	ctx := context.Background()
	f := newTestProcessing(t)
	alice := session.FromUser(aliceID, false)
	fileURI := uploadHello(t, f, alice)

	outputURI, err := f.svc.Process(ctx, alice, fileURI, "text/plain", tools.MD5ToolName)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(outputURI, testOutputs+"/"+tools.MD5ToolName))

	out, err := f.content.GetOutput(ctx, alice, outputURI)
	require.NoError(t, err)
	assert.Equal(t, helloMD5, string(out))
}

func TestProcessing_ProcessErrors(t *testing.T) {
	ctx := context.Background()
	f := newTestProcessing(t, tools.BuiltinProvider(), tools.ProviderFunc(func() []tools.Tool {
		return []tools.Tool{brokenTool{}}
	}))
	alice := session.FromUser(aliceID, false)
	fileURI := uploadHello(t, f, alice)

	tests := []struct {
		name    string
		sess    *session.Session
		uri     string
		tool    string
		wantErr error
	}{
		{name: "not logged in", sess: session.New(), uri: fileURI, tool: tools.MD5ToolName, wantErr: app.ErrLoginRequired},
		{name: "unknown tool", sess: alice, uri: fileURI, tool: "nope", wantErr: app.ErrToolNotFound},
		{name: "foreign file", sess: session.FromUser(bobID, false), uri: fileURI, tool: tools.MD5ToolName, wantErr: app.ErrUnauthorizedAccess},
		{name: "missing file", sess: alice, uri: "files/" + aliceID + "/gone.txt", tool: tools.MD5ToolName, wantErr: app.ErrFileNotFound},
		{name: "tool failure", sess: alice, uri: fileURI, tool: "broken", wantErr: app.ErrToolFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Process(ctx, tt.sess, tt.uri, "text/plain", tt.tool)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProcessing_SubmitValidation(t *testing.T) {
	ctx := context.Background()
	f := newTestProcessing(t)
	alice := session.FromUser(aliceID, false)
	fileURI := uploadHello(t, f, alice)

	tests := []struct {
		name    string
		sess    *session.Session
		req     models.ProcessingRequest
		wantErr error
	}{
		{name: "not logged in", sess: session.New(), req: models.ProcessingRequest{}, wantErr: app.ErrLoginRequired},
		{name: "foreign file before tool check", sess: session.FromUser(bobID, false), req: models.ProcessingRequest{FileURI: fileURI}, wantErr: app.ErrUnauthorizedAccess},
		{name: "no file", sess: alice, req: models.ProcessingRequest{ToolName: tools.MD5ToolName}, wantErr: app.ErrInvalidArgument},
		{name: "no tool", sess: alice, req: models.ProcessingRequest{FileURI: fileURI}, wantErr: app.ErrInvalidArgument},
		{name: "unknown tool", sess: alice, req: models.ProcessingRequest{FileURI: fileURI, ToolName: "nope"}, wantErr: app.ErrToolNotFound},
		{name: "malformed uri as admin", sess: session.FromUser("a0000000000000000", true), req: models.ProcessingRequest{FileURI: "nowhere", ToolName: tools.MD5ToolName}, wantErr: ErrInvalidURI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SubmitRequest(ctx, tt.sess, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Zero(t, f.queue.Len(f.requests.Name()))
}

func TestProcessing_RequestToCompletion(t *testing.T) {
	ctx := context.Background()
	f := newTestProcessing(t)
	alice := session.FromUser(aliceID, false)
	admin := session.FromUser("a0000000000000000", true)
	fileURI := uploadHello(t, f, alice)

	submitted, err := f.svc.SubmitRequest(ctx, alice, models.ProcessingRequest{FileURI: fileURI, ToolName: tools.MD5ToolName})
	require.NoError(t, err)
	assert.Equal(t, aliceID, submitted.RequesterID)
	assert.Equal(t, "text/plain", submitted.FileContentType)

	d, ok, err := f.requests.TryDequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, submitted, d.Message)

	require.NoError(t, f.svc.HandleRequest(ctx, d.Message))
	require.NoError(t, d.Ack(ctx))

	_, _, err = f.svc.NextCompletion(ctx, alice, 0)
	assert.ErrorIs(t, err, app.ErrAdminRequired)

	done, ok, err := f.svc.NextCompletion(ctx, admin, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, submitted.ID, done.ID)
	assert.True(t, done.Completed())

	out, err := f.content.GetOutput(ctx, alice, done.OutputURI)
	require.NoError(t, err)
	assert.Equal(t, helloMD5, string(out))

	_, ok, err = f.svc.NextCompletion(ctx, admin, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProcessing_TraceIDFollowsRequest(t *testing.T) {
	f := newTestProcessing(t)
	alice := session.FromUser(aliceID, false)
	admin := session.FromUser("a0000000000000000", true)
	fileURI := uploadHello(t, f, alice)

	ctx := utils.WithTraceID(context.Background(), "trace-1")
	submitted, err := f.svc.SubmitRequest(ctx, alice, models.ProcessingRequest{FileURI: fileURI, ToolName: tools.MD5ToolName})
	require.NoError(t, err)
	assert.Equal(t, "trace-1", submitted.TraceID)

	d, ok, err := f.requests.TryDequeue(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "trace-1", d.Message.TraceID)
	require.NoError(t, f.svc.HandleRequest(context.Background(), d.Message))

	done, ok, err := f.svc.NextCompletion(context.Background(), admin, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "trace-1", done.TraceID)
}

func TestProcessing_FailedRequestBecomesErrorCompletion(t *testing.T) {
	ctx := context.Background()
	f := newTestProcessing(t)
	admin := session.FromUser("a0000000000000000", true)

	req := models.ProcessingMessage{
		ID:              "r1",
		FileURI:         "files/" + aliceID + "/missing.txt",
		FileContentType: "text/plain",
		ToolName:        tools.MD5ToolName,
		RequesterID:     aliceID,
	}
	require.NoError(t, f.svc.HandleRequest(ctx, req))

	done, ok, err := f.svc.NextCompletion(ctx, admin, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, done.Completed())
	assert.Equal(t, app.MsgFileNotFound, done.Error)
	assert.Empty(t, done.OutputURI)
}

func TestProcessing_NextCompletionWaitTimesOut(t *testing.T) {
	f := newTestProcessing(t)
	admin := session.FromUser("a0000000000000000", true)

	start := time.Now()
	_, ok, err := f.svc.NextCompletion(context.Background(), admin, 50*time.Millisecond)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

// cancellingTool cancels the caller's context, then succeeds.
type cancellingTool struct{ cancel context.CancelFunc }

func (cancellingTool) Name() string             { return "cancelling" }
func (cancellingTool) BriefDescription() string { return "cancels its caller" }
func (cancellingTool) LongDescription() string {
	return "Cancels the request context and returns the input."
}
func (cancellingTool) ProcessableTypes() []string { return nil }

func (c cancellingTool) ProcessFile(_ context.Context, content []byte, contentType string) (models.ToolOutput, error) {
	c.cancel()
	return models.ToolOutput{Content: content, ContentType: contentType}, nil
}

func TestProcessing_CancelledRequestPublishesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newTestProcessing(t, tools.ProviderFunc(func() []tools.Tool {
		return []tools.Tool{cancellingTool{cancel: cancel}}
	}))
	admin := session.FromUser("a0000000000000000", true)
	alice := session.FromUser(aliceID, false)
	fileURI := uploadHello(t, f, alice)

	req := models.ProcessingMessage{
		ID:              "r1",
		FileURI:         fileURI,
		FileContentType: "text/plain",
		ToolName:        "cancelling",
		RequesterID:     aliceID,
	}
	err := f.svc.HandleRequest(ctx, req)

	assert.ErrorIs(t, err, context.Canceled)
	_, ok, err := f.svc.NextCompletion(context.Background(), admin, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}
