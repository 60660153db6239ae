package prov

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
)

// request describes a single call to the remote API. op prefixes every error message and log entry.
type request struct {
	body    any
	header  http.Header
	query   url.Values
	op      string
	method  string
	url     string
	timeout time.Duration
}

// envelope is the part of every Feishu response that reports the application-level status.
type envelope struct {
	Code *int   `json:"code"`
	Msg  string `json:"msg"`
}

// do issues the request, retrying network failures and timeouts up to the configured attempt count
// without delay between attempts. Non-2xx statuses, non-JSON bodies and non-zero application codes
// are returned immediately as *ProtocolError. On success the raw response body is returned.
func (f *Feishu) do(ctx context.Context, r request) (json.RawMessage, error) {
	var payload []byte

	if r.body != nil {
		var err error
		if payload, err = json.Marshal(r.body); err != nil {
			return nil, &ProtocolError{Op: r.op, Msg: "failed to marshal request", Err: err}
		}
	}

	target := r.url
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	timeout := r.timeout
	if timeout <= 0 {
		timeout = f.timeout
	}

	attempts := f.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	log := slog.With(slog.String("op", r.op), slog.String("method", r.method), slog.String("url", r.url))

	var (
		body    []byte
		attempt int
	)

	err := retry.Do(
		func() error {
			attempt++

			log.DebugContext(ctx, "Sending request", slog.Int("attempt", attempt))

			data, err := f.send(ctx, r, target, payload, timeout)
			if err != nil {
				return err
			}

			body = data

			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var ne *NetworkError
			return errors.As(err, &ne) && ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			if int(n)+1 >= attempts {
				return
			}

			log.WarnContext(ctx, "Request failed, retrying",
				slog.Int("attempt", int(n)+1),
				slog.Int("max_attempts", attempts),
				slog.Any("error", err),
			)
		}),
	)

	if err != nil {
		var ne *NetworkError
		if errors.As(err, &ne) {
			ne.Attempts = attempt
		} else if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			err = &NetworkError{Op: r.op, Attempts: attempt, Timeout: isTimeout(ctxErr), Err: ctxErr}
		}

		log.ErrorContext(ctx, "Request failed", slog.Int("attempts", attempt), slog.Any("error", err))

		return nil, err
	}

	log.DebugContext(ctx, "Request succeeded", slog.Int("attempts", attempt))

	return body, nil
}

// send performs one attempt of the request and classifies its outcome.
func (f *Feishu) send(ctx context.Context, r request, target string, payload []byte, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, r.method, target, body)
	if err != nil {
		return nil, &ProtocolError{Op: r.op, Msg: "failed to create request", Err: err}
	}

	for key, values := range r.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := f.cl.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: r.op, Timeout: isTimeout(err), Err: err}
	}

	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: r.op, Timeout: isTimeout(err), Err: err}
	}

	var env envelope

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		pe := &ProtocolError{Op: r.op, StatusCode: resp.StatusCode, Msg: "unexpected status " + http.StatusText(resp.StatusCode)}

		// Feishu reports token problems with a 4xx status and a JSON body carrying the code.
		if json.Unmarshal(data, &env) == nil && env.Code != nil {
			pe.Code = *env.Code
			if env.Msg != "" {
				pe.Msg = env.Msg
			}
		}

		return nil, pe
	}

	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ProtocolError{Op: r.op, StatusCode: resp.StatusCode, Msg: "failed to decode response", Err: err}
	}

	if env.Code == nil || *env.Code != 0 {
		code := -1
		if env.Code != nil {
			code = *env.Code
		}

		msg := env.Msg
		if msg == "" {
			msg = "unknown error"
		}

		return nil, &ProtocolError{Op: r.op, StatusCode: resp.StatusCode, Code: code, Msg: msg}
	}

	return data, nil
}

func decode(op string, data json.RawMessage, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &ProtocolError{Op: op, Msg: "failed to decode response", Err: err}
	}

	return nil
}

func opError(op, msg string) error {
	return &ProtocolError{Op: op, Msg: msg}
}
