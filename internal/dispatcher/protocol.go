// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package dispatcher

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/service"
	"github.com/MKhiriev/go-proc-box/internal/session"
	"github.com/MKhiriev/go-proc-box/internal/utils"
)

type state int

const (
	stateUnauthenticated state = iota
	stateAuthenticated
	stateToolsOffered
	stateInvoking
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateUnauthenticated:
		return "unauthenticated"
	case stateAuthenticated:
		return "authenticated"
	case stateToolsOffered:
		return "tools_offered"
	case stateInvoking:
		return "invoking"
	case stateClosed:
		return "closed"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// protocolSession is the state of one connection. It is driven by a single
// goroutine and never shared.
type protocolSession struct {
	conn       *lineConn
	sess       *session.Session
	catalog    service.CatalogService
	processing service.ProcessingService
	logger     *logger.Logger

	state       state
	contentType string
	fileURI     string
	toolName    string
}

// run drives the session until the client hangs up or a step fails. A clean
// hang-up while waiting for a tool name is not an error.
func (p *protocolSession) run(ctx context.Context) error {
	ctx = p.logger.WithContext(ctx)

	for p.state != stateClosed {
		var err error
		switch p.state {
		case stateUnauthenticated:
			err = p.authenticate(ctx)
		case stateAuthenticated:
			err = p.offerTools()
		case stateToolsOffered:
			err = p.awaitTool()
		case stateInvoking:
			err = p.invoke(ctx)
		}
		if err != nil {
			p.logger.Debug().Err(err).Stringer("state", p.state).Msg("session failed")
			p.state = stateClosed
			return err
		}
	}
	return nil
}

func (p *protocolSession) authenticate(ctx context.Context) error {
	email, err := p.readField()
	if err != nil {
		return err
	}
	password, err := p.readField()
	if err != nil {
		return err
	}

	if err = p.catalog.Login(ctx, p.sess, email, password); err != nil {
		return p.reject(err)
	}
	if err = p.conn.writeLines(okReply); err != nil {
		return err
	}

	p.logger.Info().Str("user_id", p.sess.UserID()).Msg("session authenticated")
	p.state = stateAuthenticated
	return nil
}

func (p *protocolSession) offerTools() error {
	contentType, err := p.readField()
	if err != nil {
		return err
	}
	fileURI, err := p.readField()
	if err != nil {
		return err
	}
	fileURI = strings.TrimSpace(fileURI)
	if fileURI == "" {
		return p.reject(app.RequiredArgument("file address"))
	}

	p.contentType = utils.NormalizeContentType(strings.TrimSpace(contentType))
	p.fileURI = fileURI

	descriptors := p.processing.AvailableTools(p.contentType)
	lines := make([]string, 0, len(descriptors)+1)
	lines = append(lines, strconv.Itoa(len(descriptors)))
	for _, d := range descriptors {
		lines = append(lines, d.String())
	}
	if err = p.conn.writeLines(lines...); err != nil {
		return err
	}

	p.state = stateToolsOffered
	return nil
}

func (p *protocolSession) awaitTool() error {
	toolName, err := p.conn.readLine()
	switch {
	case errors.Is(err, io.EOF):
		p.state = stateClosed
		return nil
	case errors.Is(err, ErrLineTooLong):
		return p.reject(err)
	case err != nil:
		return err
	}

	toolName = strings.TrimSpace(toolName)
	if toolName == "" {
		return p.reject(app.RequiredArgument("tool name"))
	}

	p.toolName = toolName
	p.state = stateInvoking
	return nil
}

func (p *protocolSession) invoke(ctx context.Context) error {
	outputURI, err := p.processing.Process(ctx, p.sess, p.fileURI, p.contentType, p.toolName)
	if err != nil {
		return p.reject(err)
	}
	if err = p.conn.writeLines(outputURI); err != nil {
		return err
	}

	p.state = stateToolsOffered
	return nil
}

// readField reads one request line. A connection closed before the line
// arrives is reported as io.ErrUnexpectedEOF.
func (p *protocolSession) readField() (string, error) {
	line, err := p.conn.readLine()
	switch {
	case errors.Is(err, io.EOF):
		return "", io.ErrUnexpectedEOF
	case errors.Is(err, ErrLineTooLong):
		return "", p.reject(err)
	case err != nil:
		return "", err
	}
	return line, nil
}

// reject sends KO with the client-facing reason for cause and returns cause.
func (p *protocolSession) reject(cause error) error {
	if err := p.conn.writeKO(app.ReasonFor(cause)); err != nil {
		p.logger.Debug().Err(err).Msg("KO reply not delivered")
	}
	return cause
}
