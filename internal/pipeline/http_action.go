package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shaiso/taskgraph/internal/engine"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 1 << 20 // 1 MB
)

// httpPayload — тело запроса действия http.
type httpPayload struct {
	TaskID string `json:"task_id"`
	Task   string `json:"task"`
	Kind   string `json:"kind"`
}

// validateHTTP проверяет url и method действия http.
func validateHTTP(t TaskDef) error {
	if t.URL == "" {
		return fmt.Errorf("url is required for http action")
	}
	u, err := url.Parse(t.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url %q", t.URL)
	}

	switch strings.ToUpper(t.Method) {
	case "", http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return nil
	default:
		return fmt.Errorf("unsupported method %q", t.Method)
	}
}

// httpAction вызывает внешний endpoint. Ответ со статусом >= 400 — ошибка задачи.
//
// Для методов с телом отправляется JSON с описанием задачи.
func httpAction(def TaskDef, env Env) engine.TaskFunc {
	method := strings.ToUpper(def.Method)
	if method == "" {
		method = http.MethodPost
	}
	client := env.HTTPClient

	return func(ctx context.Context, t *engine.Task) error {
		var body io.Reader
		if method != http.MethodGet && method != http.MethodDelete {
			data, err := json.Marshal(httpPayload{
				TaskID: t.ID(),
				Task:   t.Name(),
				Kind:   string(t.Kind()),
			})
			if err != nil {
				return fmt.Errorf("marshal payload: %w", err)
			}
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, def.URL, body)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("http request failed: %w", err)
		}
		defer resp.Body.Close()

		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("%w: %s %s: status %d", ErrActionFailed, method, def.URL, resp.StatusCode)
		}

		env.Logger.Debug("http action completed",
			"task", t.Name(),
			"method", method,
			"url", def.URL,
			"status", resp.StatusCode,
		)
		return nil
	}
}
