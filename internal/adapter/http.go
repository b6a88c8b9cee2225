package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

type httpServerAdapter struct {
	client *utils.HTTPClient
	token  string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs the resty-backed [ServerAdapter] for
// cfg.HTTPAddress. A missing scheme defaults to http.
func NewHTTPServerAdapter(cfg config.ClientAdapter, logger *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(cfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	return &httpServerAdapter{
		client: utils.NewHTTPClient(baseURL, cfg.RequestTimeout),
		logger: logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errEmptyAddress
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.New("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func (h *httpServerAdapter) SetToken(token string) {
	h.token = strings.TrimSpace(token)
}

func (h *httpServerAdapter) Token() string {
	return h.token
}

// Login posts the credentials to POST /api/user/login and keeps the token
// from the Authorization response header.
func (h *httpServerAdapter) Login(ctx context.Context, email, password string) (models.User, error) {
	var user models.User

	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(models.LoginRequest{Email: email, Password: password}).
		SetResult(&user).
		Post("/api/user/login")
	if err != nil {
		return models.User{}, fmt.Errorf("login request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.User{}, err
	}

	token, err := utils.ParseBearerToken(resp.Header().Get("Authorization"))
	if err != nil {
		return models.User{}, fmt.Errorf("login parse bearer token: %w", err)
	}

	h.SetToken(token)
	h.logger.Debug().Str("user_id", user.ID).Bool("is_admin", user.IsAdmin).Msg("logged in")
	return user, nil
}

func (h *httpServerAdapter) AddUser(ctx context.Context, req models.AddUserRequest) (models.User, error) {
	var user models.User

	resp, err := h.authedRequest(ctx).
		SetBody(req).
		SetResult(&user).
		Post("/api/users")
	if err != nil {
		return models.User{}, fmt.Errorf("add user request: %w", err)
	}
	return user, mapHTTPError(resp)
}

func (h *httpServerAdapter) DeleteUser(ctx context.Context, email string) error {
	resp, err := h.authedRequest(ctx).
		SetPathParam("email", email).
		Delete("/api/users/{email}")
	if err != nil {
		return fmt.Errorf("delete user request: %w", err)
	}
	return mapHTTPError(resp)
}

func (h *httpServerAdapter) ListAdminEmails(ctx context.Context) ([]string, error) {
	return h.listEmails(ctx, "/api/users/admins")
}

func (h *httpServerAdapter) ListCommonEmails(ctx context.Context) ([]string, error) {
	return h.listEmails(ctx, "/api/users/common")
}

func (h *httpServerAdapter) listEmails(ctx context.Context, path string) ([]string, error) {
	var emails []string

	resp, err := h.authedRequest(ctx).SetResult(&emails).Get(path)
	if err != nil {
		return nil, fmt.Errorf("list emails request: %w", err)
	}
	return emails, mapHTTPError(resp)
}

// UploadFile PUTs content to /api/files/{name} together with its
// [utils.ContentHashHeader] digest.
func (h *httpServerAdapter) UploadFile(ctx context.Context, name string, content []byte, overwrite bool) (string, error) {
	var addr models.AddressResponse

	resp, err := h.authedRequest(ctx).
		SetPathParam("name", name).
		SetQueryParam("overwrite", strconv.FormatBool(overwrite)).
		SetHeader("Content-Type", utils.ContentTypeByName(name)).
		SetHeader(utils.ContentHashHeader, utils.ContentHash(content)).
		SetBody(content).
		SetResult(&addr).
		Put("/api/files/{name}")
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}
	return addr.URI, nil
}

func (h *httpServerAdapter) ListFiles(ctx context.Context) ([]models.FileMetadata, error) {
	var files []models.FileMetadata

	resp, err := h.authedRequest(ctx).SetResult(&files).Get("/api/files")
	if err != nil {
		return nil, fmt.Errorf("list files request: %w", err)
	}
	return files, mapHTTPError(resp)
}

func (h *httpServerAdapter) DownloadFile(ctx context.Context, uri string) ([]byte, error) {
	return h.download(ctx, "/api/files/content", uri)
}

func (h *httpServerAdapter) DeleteFile(ctx context.Context, uri string) error {
	return h.delete(ctx, "/api/files", uri)
}

func (h *httpServerAdapter) DownloadOutput(ctx context.Context, uri string) ([]byte, error) {
	return h.download(ctx, "/api/outputs", uri)
}

func (h *httpServerAdapter) DeleteOutput(ctx context.Context, uri string) error {
	return h.delete(ctx, "/api/outputs", uri)
}

func (h *httpServerAdapter) download(ctx context.Context, path, uri string) ([]byte, error) {
	resp, err := h.authedRequest(ctx).SetQueryParam("uri", uri).Get(path)
	if err != nil {
		return nil, fmt.Errorf("download request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func (h *httpServerAdapter) delete(ctx context.Context, path, uri string) error {
	resp, err := h.authedRequest(ctx).SetQueryParam("uri", uri).Delete(path)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return mapHTTPError(resp)
}

func (h *httpServerAdapter) ListTools(ctx context.Context, contentType string) ([]models.ToolDescriptor, error) {
	var descriptors []models.ToolDescriptor

	resp, err := h.authedRequest(ctx).
		SetQueryParam("content_type", contentType).
		SetResult(&descriptors).
		Get("/api/tools")
	if err != nil {
		return nil, fmt.Errorf("list tools request: %w", err)
	}
	return descriptors, mapHTTPError(resp)
}

func (h *httpServerAdapter) SubmitRequest(ctx context.Context, req models.ProcessingRequest) (models.ProcessingMessage, error) {
	var msg models.ProcessingMessage

	resp, err := h.authedRequest(ctx).
		SetBody(req).
		SetResult(&msg).
		Post("/api/processing/requests")
	if err != nil {
		return models.ProcessingMessage{}, fmt.Errorf("submit request: %w", err)
	}
	return msg, mapHTTPError(resp)
}

func (h *httpServerAdapter) NextCompletion(ctx context.Context, wait time.Duration) (models.ProcessingMessage, bool, error) {
	var msg models.ProcessingMessage

	req := h.authedRequest(ctx).SetResult(&msg)
	if wait > 0 {
		req.SetQueryParam("wait", wait.String())
	}

	resp, err := req.Get("/api/processing/completions/next")
	if err != nil {
		return models.ProcessingMessage{}, false, fmt.Errorf("next completion request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.ProcessingMessage{}, false, err
	}
	if resp.StatusCode() == http.StatusNoContent {
		return models.ProcessingMessage{}, false, nil
	}
	return msg, true, nil
}

func (h *httpServerAdapter) Version(ctx context.Context) (models.AppBuildInfo, error) {
	var info models.AppBuildInfo

	resp, err := h.client.R().SetContext(ctx).SetResult(&info).Get("/api/version/")
	if err != nil {
		return models.AppBuildInfo{}, fmt.Errorf("version request: %w", err)
	}
	return info, mapHTTPError(resp)
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}
