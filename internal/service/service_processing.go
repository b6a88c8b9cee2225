package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/queue"
	"github.com/MKhiriev/go-proc-box/internal/session"
	"github.com/MKhiriev/go-proc-box/internal/tools"
	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

type processingService struct {
	registry *tools.Registry
	content  ContentService
	// filesContainer is used to check request ownership before enqueueing.
	filesContainer string
	requests       *queue.Channel[models.ProcessingMessage]
	completions    *queue.Channel[models.ProcessingMessage]
	ids            utils.IDGenerator
	toolTimeout    time.Duration
	logger         *logger.Logger
}

func NewProcessingService(
	registry *tools.Registry,
	content ContentService,
	filesContainer string,
	requests, completions *queue.Channel[models.ProcessingMessage],
	ids utils.IDGenerator,
	toolTimeout time.Duration,
	logger *logger.Logger,
) ProcessingService {
	return &processingService{
		registry:       registry,
		content:        content,
		filesContainer: filesContainer,
		requests:       requests,
		completions:    completions,
		ids:            ids,
		toolTimeout:    toolTimeout,
		logger:         logger,
	}
}

func (p *processingService) AvailableTools(contentType string) []models.ToolDescriptor {
	return p.registry.GetAvailableTools(contentType)
}

func (p *processingService) Process(ctx context.Context, sess *session.Session, fileURI, contentType, toolName string) (string, error) {
	if err := sess.RequireLogin(); err != nil {
		return "", err
	}
	if _, ok := p.registry.GetTool(toolName); !ok {
		return "", fmt.Errorf("%w: %q", app.ErrToolNotFound, toolName)
	}

	content, err := p.content.GetFile(ctx, sess, fileURI)
	if err != nil {
		return "", err
	}

	log := logger.FromContext(ctx).WithStr("tool", toolName)
	started := time.Now()

	out, err := p.registry.Invoke(ctx, toolName, content, contentType, p.toolTimeout)
	if err != nil {
		log.Err(err).Str("file_uri", fileURI).Msg("tool invocation failed")
		return "", err
	}

	outputURI, err := p.content.AddOutput(ctx, toolName, out.ContentType, out.Content)
	if err != nil {
		return "", err
	}

	log.Info().
		Str("file_uri", fileURI).
		Str("output_uri", outputURI).
		Dur("took", time.Since(started)).
		Msg("file processed")
	return outputURI, nil
}

// SubmitRequest validates what can be validated up front (tool name and
// file ownership) so that obviously doomed requests never reach the queue.
func (p *processingService) SubmitRequest(ctx context.Context, sess *session.Session, req models.ProcessingRequest) (models.ProcessingMessage, error) {
	if err := sess.RequireLogin(); err != nil {
		return models.ProcessingMessage{}, err
	}

	userID, isAdmin, _ := sess.Snapshot()
	fileURI := strings.TrimSpace(req.FileURI)
	owner, _, err := ParseFileURI(p.filesContainer, fileURI)
	if !isAdmin && fileURI != "" && (err != nil || owner != userID) {
		return models.ProcessingMessage{}, app.ErrUnauthorizedAccess
	}

	switch {
	case fileURI == "":
		return models.ProcessingMessage{}, app.RequiredArgument("file_uri")
	case err != nil:
		return models.ProcessingMessage{}, err
	case req.ToolName == "":
		return models.ProcessingMessage{}, app.RequiredArgument("tool_name")
	}
	if _, ok := p.registry.GetTool(req.ToolName); !ok {
		return models.ProcessingMessage{}, fmt.Errorf("%w: %q", app.ErrToolNotFound, req.ToolName)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = utils.ContentTypeByName(fileURI)
	}

	msg := models.ProcessingMessage{
		ID:              p.ids.Generate(),
		FileURI:         fileURI,
		FileContentType: utils.NormalizeContentType(contentType),
		ToolName:        req.ToolName,
		RequesterID:     userID,
	}
	if traceID, ok := utils.GetTraceIDFromContext(ctx); ok {
		msg.TraceID = traceID
	}
	if _, err = p.requests.Enqueue(ctx, msg); err != nil {
		logger.FromContext(ctx).Err(err).Str("request_id", msg.ID).Msg("enqueueing request failed")
		return models.ProcessingMessage{}, err
	}

	return msg, nil
}

// HandleRequest runs the request on behalf of its requester. Processing
// failures become error completions and are not retried; only a failure to
// publish the completion releases the request. Nothing is published once ctx
// is done: the consumer no longer owns the request.
func (p *processingService) HandleRequest(ctx context.Context, req models.ProcessingMessage) error {
	log := p.logger.WithStr("request_id", req.ID)
	if req.TraceID != "" {
		log = log.WithStr("trace_id", req.TraceID)
		ctx = utils.WithTraceID(ctx, req.TraceID)
	}
	sess := session.FromUser(req.RequesterID, models.IsAdminID(req.RequesterID))

	completion := req
	outputURI, err := p.Process(log.WithContext(ctx), sess, req.FileURI, req.FileContentType, req.ToolName)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		completion.Error = app.ReasonFor(err)
	} else {
		completion.OutputURI = outputURI
	}

	if err = ctx.Err(); err != nil {
		log.Warn().Err(err).Msg("request abandoned before publishing its completion")
		return err
	}
	if _, err = p.completions.Enqueue(ctx, completion); err != nil {
		log.Err(err).Msg("publishing completion failed")
		return err
	}

	log.Info().Bool("completed", completion.Completed()).Msg("request handled")
	return nil
}

func (p *processingService) NextCompletion(ctx context.Context, sess *session.Session, wait time.Duration) (models.ProcessingMessage, bool, error) {
	if err := sess.RequireAdmin(); err != nil {
		return models.ProcessingMessage{}, false, err
	}

	var (
		d   *queue.Delivery[models.ProcessingMessage]
		ok  bool
		err error
	)
	if wait <= 0 {
		d, ok, err = p.completions.TryDequeue(ctx)
	} else {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		d, err = p.completions.Dequeue(waitCtx)
		cancel()
		ok = err == nil
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = nil
		}
	}
	if err != nil || !ok {
		return models.ProcessingMessage{}, false, err
	}

	if err = d.Ack(ctx); err != nil {
		logger.FromContext(ctx).Err(err).Str("entry_id", d.ID).Msg("acknowledging completion failed")
		return models.ProcessingMessage{}, false, err
	}
	return d.Message, true, nil
}
