package jobs_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quartzgo/quartz/internal/domain"
	"github.com/quartzgo/quartz/internal/jobs"
	"github.com/quartzgo/quartz/internal/scheduler"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPJob_Execute_Success(t *testing.T) {
	var gotMethod, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Custom")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	job := jobs.NewHTTPJob(discardLogger())
	jec := &scheduler.JobExecutionContext{
		FireInstanceID: "fire-1",
		JobDataMap: domain.JobDataMap{
			"url":          srv.URL,
			"method":       http.MethodPost,
			"header.X-Custom": "hello",
		},
	}

	if err := job.Execute(context.Background(), jec); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}
	if gotHeader != "hello" {
		t.Fatalf("expected custom header to be forwarded, got %q", gotHeader)
	}
}

func TestHTTPJob_Execute_ServerErrorReturnsErr(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	job := jobs.NewHTTPJob(discardLogger())
	jec := &scheduler.JobExecutionContext{
		JobDataMap: domain.JobDataMap{"url": srv.URL},
	}

	if err := job.Execute(context.Background(), jec); err == nil {
		t.Fatal("expected error for 5xx response")
	}
}

func TestHTTPJob_Execute_MissingURL(t *testing.T) {
	job := jobs.NewHTTPJob(discardLogger())
	jec := &scheduler.JobExecutionContext{JobDataMap: domain.JobDataMap{}}

	if err := job.Execute(context.Background(), jec); err == nil {
		t.Fatal("expected error for missing url")
	}
}

func TestFactory_UnknownClass(t *testing.T) {
	factory := jobs.Factory(discardLogger())

	if _, err := factory.New(jobs.HTTPClassName); err != nil {
		t.Fatalf("expected %s to resolve, got %v", jobs.HTTPClassName, err)
	}
	if _, err := factory.New("not-a-real-class"); err == nil {
		t.Fatal("expected error for unknown job class")
	}
}
