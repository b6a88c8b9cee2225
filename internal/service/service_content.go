// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/session"
	"github.com/MKhiriev/go-proc-box/internal/store"
	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

// contentService maps addresses onto blob keys:
//
//	files:   <filesContainer>/<ownerID>/<name>
//	outputs: <outputsContainer>/<toolName><uuid>
type contentService struct {
	blobs            store.BlobStorage
	filesContainer   string
	outputsContainer string
	ids              utils.IDGenerator
	logger           *logger.Logger
}

func NewContentService(blobs store.BlobStorage, cfg config.Blobs, ids utils.IDGenerator, logger *logger.Logger) ContentService {
	return &contentService{
		blobs:            blobs,
		filesContainer:   cfg.FilesContainer,
		outputsContainer: cfg.OutputsContainer,
		ids:              ids,
		logger:           logger,
	}
}

func (c *contentService) AddFile(ctx context.Context, sess *session.Session, name string, content io.ReadSeeker, overwrite bool) (string, error) {
	if err := sess.RequireLogin(); err != nil {
		return "", err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", app.RequiredArgument("name")
	}
	if content == nil {
		return "", app.RequiredArgument("content")
	}

	owner := sess.UserID()
	log := logger.FromContext(ctx).WithStr("owner", owner)

	if !overwrite {
		existing, err := c.blobs.List(ctx, c.filesContainer, ownerPrefix(owner))
		if err != nil {
			log.Err(err).Msg("listing own files failed")
			return "", fmt.Errorf("listing own files failed: %w", err)
		}
		for _, info := range existing {
			if strings.TrimPrefix(info.Key, ownerPrefix(owner)) == name {
				return "", app.ErrFileAlreadyExists
			}
		}
	}

	key := ownerPrefix(owner) + name
	err := c.blobs.Put(ctx, c.filesContainer, key, utils.ContentTypeByName(name), content)
	if err != nil {
		if errors.Is(err, store.ErrInvalidBlobKey) {
			return "", fmt.Errorf("%w: %w", app.ErrInvalidArgument, err)
		}
		log.Err(err).Str("name", name).Msg("storing file failed")
		return "", fmt.Errorf("storing file failed: %w", err)
	}

	uri := c.filesContainer + "/" + key
	log.Info().Str("uri", uri).Bool("overwrite", overwrite).Msg("file stored")
	return uri, nil
}

func (c *contentService) DeleteFile(ctx context.Context, sess *session.Session, uri string) (bool, error) {
	key, err := c.authorizeFile(sess, uri, app.ErrUnauthorizedDelete)
	if err != nil {
		return false, err
	}

	deleted, err := c.blobs.Delete(ctx, c.filesContainer, key)
	if err != nil {
		if errors.Is(err, store.ErrInvalidBlobKey) {
			return false, ErrInvalidURI
		}
		logger.FromContext(ctx).Err(err).Str("uri", uri).Msg("deleting file failed")
		return false, fmt.Errorf("deleting file failed: %w", err)
	}
	return deleted, nil
}

func (c *contentService) GetFile(ctx context.Context, sess *session.Session, uri string) ([]byte, error) {
	key, err := c.authorizeFile(sess, uri, app.ErrUnauthorizedAccess)
	if err != nil {
		return nil, err
	}

	content, err := c.blobs.Get(ctx, c.filesContainer, key)
	switch {
	case errors.Is(err, store.ErrBlobNotFound):
		return nil, app.ErrFileNotFound
	case errors.Is(err, store.ErrInvalidBlobKey):
		return nil, ErrInvalidURI
	case err != nil:
		logger.FromContext(ctx).Err(err).Str("uri", uri).Msg("reading file failed")
		return nil, fmt.Errorf("reading file failed: %w", err)
	}
	return content, nil
}

// ListFileMetadata returns the caller's own files, named relative to the
// owner. Administrators see every file, named "<ownerID>/<name>".
func (c *contentService) ListFileMetadata(ctx context.Context, sess *session.Session) ([]models.FileMetadata, error) {
	if err := sess.RequireLogin(); err != nil {
		return nil, err
	}

	userID, isAdmin, _ := sess.Snapshot()
	prefix := ownerPrefix(userID)
	if isAdmin {
		prefix = ""
	}

	infos, err := c.blobs.List(ctx, c.filesContainer, prefix)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("owner", userID).Msg("listing files failed")
		return nil, fmt.Errorf("listing files failed: %w", err)
	}

	files := make([]models.FileMetadata, 0, len(infos))
	for _, info := range infos {
		name := strings.TrimPrefix(info.Key, prefix)
		contentType := info.ContentType
		if contentType == "" {
			contentType = utils.ContentTypeByName(name)
		}
		files = append(files, models.FileMetadata{
			Name:        name,
			ContentType: contentType,
			URI:         c.filesContainer + "/" + info.Key,
			Size:        info.Size,
		})
	}
	return files, nil
}

func (c *contentService) AddOutput(ctx context.Context, toolName, contentType string, content []byte) (string, error) {
	switch {
	case toolName == "":
		return "", app.RequiredArgument("tool name")
	case contentType == "":
		return "", app.RequiredArgument("content type")
	case content == nil:
		return "", app.RequiredArgument("content")
	}

	key := toolName + c.ids.Generate()
	if err := c.blobs.Put(ctx, c.outputsContainer, key, contentType, bytes.NewReader(content)); err != nil {
		logger.FromContext(ctx).Err(err).Str("tool", toolName).Msg("storing output failed")
		return "", fmt.Errorf("storing output failed: %w", err)
	}

	return c.outputsContainer + "/" + key, nil
}

func (c *contentService) GetOutput(ctx context.Context, sess *session.Session, uri string) ([]byte, error) {
	if err := sess.RequireLogin(); err != nil {
		return nil, err
	}

	key, ok := strings.CutPrefix(uri, c.outputsContainer+"/")
	if !ok || key == "" {
		return nil, ErrInvalidURI
	}

	content, err := c.blobs.Get(ctx, c.outputsContainer, key)
	switch {
	case errors.Is(err, store.ErrBlobNotFound):
		return nil, app.ErrOutputNotFound
	case errors.Is(err, store.ErrInvalidBlobKey):
		return nil, ErrInvalidURI
	case err != nil:
		logger.FromContext(ctx).Err(err).Str("uri", uri).Msg("reading output failed")
		return nil, fmt.Errorf("reading output failed: %w", err)
	}
	return content, nil
}

func (c *contentService) DeleteOutput(ctx context.Context, sess *session.Session, uri string) (bool, error) {
	if err := sess.RequireLogin(); err != nil {
		return false, err
	}

	key, ok := strings.CutPrefix(uri, c.outputsContainer+"/")
	if !ok || key == "" {
		return false, ErrInvalidURI
	}

	deleted, err := c.blobs.Delete(ctx, c.outputsContainer, key)
	if err != nil {
		if errors.Is(err, store.ErrInvalidBlobKey) {
			return false, ErrInvalidURI
		}
		logger.FromContext(ctx).Err(err).Str("uri", uri).Msg("deleting output failed")
		return false, fmt.Errorf("deleting output failed: %w", err)
	}
	return deleted, nil
}

// authorizeFile checks login, then ownership, then the shape of uri, and
// returns the blob key. denied is returned when a common user addresses a
// file of another owner.
func (c *contentService) authorizeFile(sess *session.Session, uri string, denied error) (string, error) {
	if err := sess.RequireLogin(); err != nil {
		return "", err
	}

	userID, isAdmin, _ := sess.Snapshot()
	if !isAdmin && !strings.HasPrefix(uri, c.filesContainer+"/"+ownerPrefix(userID)) {
		return "", denied
	}

	owner, name, err := ParseFileURI(c.filesContainer, uri)
	if err != nil {
		return "", err
	}
	return ownerPrefix(owner) + name, nil
}

// ParseFileURI splits a file address of the form
// "<filesContainer>/<ownerID>/<name>".
func ParseFileURI(filesContainer, uri string) (ownerID, name string, err error) {
	rest, ok := strings.CutPrefix(uri, filesContainer+"/")
	if !ok {
		return "", "", ErrInvalidURI
	}
	ownerID, name, ok = strings.Cut(rest, "/")
	if !ok || ownerID == "" || name == "" {
		return "", "", ErrInvalidURI
	}
	return ownerID, name, nil
}

func ownerPrefix(ownerID string) string {
	return ownerID + "/"
}
