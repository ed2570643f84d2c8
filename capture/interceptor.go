package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"sync/atomic"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/neoclaw-ai/tgharness/internal/logging"
)

var _ bot.HttpClient = (*Interceptor)(nil)

type updateContextKey struct{}

// ContextWithUpdate returns a context carrying the update being processed.
func ContextWithUpdate(ctx context.Context, upd *models.Update) context.Context {
	return context.WithValue(ctx, updateContextKey{}, upd)
}

// UpdateFromContext returns the update stored by ContextWithUpdate.
func UpdateFromContext(ctx context.Context) (*models.Update, bool) {
	if ctx == nil {
		return nil, false
	}
	upd, ok := ctx.Value(updateContextKey{}).(*models.Update)
	return upd, ok && upd != nil
}

// Interceptor replaces the Telegram transport of one bot instance.
//
// Install Middleware as the outermost bot middleware and pass the
// Interceptor itself to bot.WithHTTPClient. Every request the bot sends is
// decoded, recorded in the registry under key and answered with a synthetic
// success response; nothing leaves the process.
type Interceptor struct {
	registry *Registry
	key      string
	botUser  models.User
	logger   *slog.Logger

	active atomic.Pointer[models.Update]
}

// InterceptorOption configures an Interceptor.
type InterceptorOption func(*Interceptor)

// WithBotUser sets the user returned for getMe.
func WithBotUser(user models.User) InterceptorOption {
	return func(i *Interceptor) {
		i.botUser = user
	}
}

// WithLogger sets the logger used for capture diagnostics.
func WithLogger(logger *slog.Logger) InterceptorOption {
	return func(i *Interceptor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInterceptor creates an interceptor recording into registry under key.
func NewInterceptor(registry *Registry, key string, opts ...InterceptorOption) *Interceptor {
	if registry == nil {
		registry = NewRegistry()
	}
	i := &Interceptor{
		registry: registry,
		key:      key,
		logger:   logging.Logger(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Key returns the registry key the interceptor records under.
func (i *Interceptor) Key() string {
	return i.key
}

// Registry returns the registry the interceptor records into.
func (i *Interceptor) Registry() *Registry {
	return i.registry
}

// Middleware tags the handler context with the update being processed so
// calls made while handling it are attributed to its update id.
func (i *Interceptor) Middleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, upd *models.Update) {
		if upd != nil {
			i.active.Store(upd)
			ctx = ContextWithUpdate(ctx, upd)
		}
		next(ctx, b, upd)
	}
}

// Do records req and answers it locally. It never returns an error.
func (i *Interceptor) Do(req *http.Request) (resp *http.Response, err error) {
	method := path.Base(req.URL.Path)
	defer func() {
		if r := recover(); r != nil {
			i.logger.Warn("capture failed", "method", method, "panic", fmt.Sprint(r))
			resp, err = okResponse(req, true), nil
		}
	}()

	if method == "getMe" {
		return okResponse(req, i.botUser), nil
	}

	upd := i.updateFor(req.Context())
	var updateID int64
	if upd != nil {
		updateID = upd.ID
	}

	payload, decodeErr := decodePayload(req)
	if decodeErr != nil {
		i.logger.Warn("capture skipped: undecodable request", "method", method, "update_id", updateID, "err", decodeErr)
		result, _ := acknowledge(method, upd, nil, i.botUser)
		return okResponse(req, result), nil
	}

	result, messageID := acknowledge(method, upd, payload, i.botUser)
	call := Call{
		UpdateID:  updateID,
		Method:    method,
		Payload:   payload,
		MessageID: messageID,
	}
	recorded, recordErr := i.registry.Get(i.key).Record(call)
	switch {
	case recordErr != nil:
		i.logger.Warn("capture skipped", "method", method, "update_id", updateID, "err", recordErr)
	case recorded:
		i.logger.Debug("captured call", "method", method, "update_id", updateID)
	default:
		i.logger.Debug("duplicate call suppressed", "method", method, "update_id", updateID)
	}

	return okResponse(req, result), nil
}

func (i *Interceptor) updateFor(ctx context.Context) *models.Update {
	if upd, ok := UpdateFromContext(ctx); ok {
		return upd
	}
	return i.active.Load()
}

type apiResponse struct {
	OK     bool `json:"ok"`
	Result any  `json:"result"`
}

var fallbackBody = []byte(`{"ok":true,"result":true}`)

func okResponse(req *http.Request, result any) *http.Response {
	body, err := json.Marshal(apiResponse{OK: true, Result: result})
	if err != nil {
		body = fallbackBody
	}
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"application/json"}, "Content-Length": []string{strconv.Itoa(len(body))}},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
