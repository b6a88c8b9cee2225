// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"strconv"

	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/queue"
	"github.com/MKhiriev/go-proc-box/models"
)

// requestHandler is the part of service.ProcessingService a worker needs.
type requestHandler interface {
	HandleRequest(ctx context.Context, req models.ProcessingMessage) error
}

// processingWorker drains the request channel, running each request through
// the processing service. The channel keeps a request hidden from other
// workers while it is handled; should its receipt be lost regardless, the
// handler's context is cancelled and no completion is published.
type processingWorker struct {
	requests *queue.Channel[models.ProcessingMessage]
	handler  requestHandler
	logger   *logger.Logger
}

func newProcessingWorker(id int, requests *queue.Channel[models.ProcessingMessage], handler requestHandler, log *logger.Logger) *processingWorker {
	return &processingWorker{
		requests: requests,
		handler:  handler,
		logger:   log.WithStr("worker", strconv.Itoa(id)),
	}
}

func (w *processingWorker) Run(ctx context.Context) error {
	w.logger.Debug().Str("queue", w.requests.Name()).Msg("worker started")
	defer w.logger.Debug().Msg("worker stopped")

	return w.requests.Consume(w.logger.WithContext(ctx), w.handler.HandleRequest)
}
