// Package jobs holds the built-in Job implementations Quartz-Go registers
// with a scheduler.JobFactory out of the box. Quartz's own sample jobs
// (mail, shell, JMS, file scan) are named in the spec as external
// collaborators the core merely consumes through the Job interface; this
// package keeps exactly one such sample — an HTTP webhook job — so the
// daemon and the seed tool have something concrete to register and fire.
package jobs

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/quartzgo/quartz/internal/scheduler"
)

// HTTPClassName is the JobDetail.JobClass value an HTTPJob is registered
// under.
const HTTPClassName = "http"

// HTTPJob issues one HTTP request per fire. Its parameters are read from
// the fire's merged JobDataMap: url (required), method (default GET),
// timeout_seconds (default 30), and header.<Name> entries forwarded as
// request headers.
type HTTPJob struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTPJob returns an HTTPJob sharing one connection-pooled client across
// fires, the same transport tuning the teacher's dispatcher executor uses.
func NewHTTPJob(logger *slog.Logger) *HTTPJob {
	return &HTTPJob{
		client: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		logger: logger.With("component", "http_job"),
	}
}

// Factory returns a scheduler.JobFactory that resolves HTTPClassName to a
// shared HTTPJob and rejects every other class name.
func Factory(logger *slog.Logger) scheduler.JobFactory {
	job := NewHTTPJob(logger)
	return scheduler.JobFactoryFunc(func(jobClass string) (scheduler.Job, error) {
		if jobClass != HTTPClassName {
			return nil, fmt.Errorf("jobs: unknown job class %q", jobClass)
		}
		return job, nil
	})
}

func (j *HTTPJob) Execute(ctx context.Context, jec *scheduler.JobExecutionContext) error {
	data := jec.JobDataMap

	url := data["url"]
	if url == "" {
		return fmt.Errorf("http job: missing %q in job data map", "url")
	}
	method := data["method"]
	if method == "" {
		method = http.MethodGet
	}
	timeout := 30 * time.Second
	if v := data["timeout_seconds"]; v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			timeout = d
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if b := data["body"]; b != "" {
		body = strings.NewReader(b)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, url, body)
	if err != nil {
		return fmt.Errorf("http job: build request: %w", err)
	}
	const headerPrefix = "header."
	for k, v := range data {
		if name, ok := strings.CutPrefix(k, headerPrefix); ok {
			req.Header.Set(name, v)
		}
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", jec.FireInstanceID)
	}

	start := time.Now()
	resp, err := j.client.Do(req)
	if err != nil {
		j.logger.ErrorContext(ctx, "http job request failed", "url", url, "method", method, "error", err, "duration", time.Since(start))
		return fmt.Errorf("http job: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	j.logger.InfoContext(ctx, "http job request completed",
		"fire_instance_id", jec.FireInstanceID,
		"url", url, "method", method, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 500 {
		return fmt.Errorf("http job: server returned %d", resp.StatusCode)
	}
	return nil
}
