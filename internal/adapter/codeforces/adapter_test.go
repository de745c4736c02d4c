package codeforces

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ContestSync/internal/config"
	"ContestSync/internal/fetch"
	"ContestSync/internal/model"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testAdapter(baseURL string) *Adapter {
	return NewAdapter(&config.PlatformConfig{BaseURL: baseURL, Timeout: 5}, testLogger()).(*Adapter)
}

func TestFetchContests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contest.list" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("gym") != "false" {
			t.Error("gym filter missing")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"result": [
				{"id": 1234, "name": "Codeforces Round (Div. 2)", "type": "CF", "phase": "BEFORE", "durationSeconds": 7200, "startTimeSeconds": 1790000000},
				{"id": 1233, "name": "Educational Codeforces Round 170", "type": "ICPC", "phase": "FINISHED", "durationSeconds": 9000, "startTimeSeconds": 1780000000}
			]
		}`))
	}))
	defer srv.Close()

	raws, err := testAdapter(srv.URL).FetchContests(context.Background(), model.PlatformCodeforces)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("raws: got %d, want 2", len(raws))
	}
	if raws[0].NativeID != "1234" || raws[0].Source != model.SourceOfficialAPI {
		t.Errorf("first raw wrong: %+v", raws[0])
	}
	data, ok := raws[1].Data.(model.CodeforcesContest)
	if !ok {
		t.Fatalf("payload type: %T", raws[1].Data)
	}
	if data.DurationSeconds != 9000 {
		t.Errorf("duration: got %d", data.DurationSeconds)
	}
}

// 200+status=FAILED是API级错误，归为上游错误
func TestAPILevelFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "FAILED", "comment": "contest.list: limit exceeded"}`))
	}))
	defer srv.Close()

	_, err := testAdapter(srv.URL).FetchContests(context.Background(), model.PlatformCodeforces)
	var upstream *fetch.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Msg != "contest.list: limit exceeded" {
		t.Errorf("comment lost: %q", upstream.Msg)
	}
}

func TestHTTPStatusFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testAdapter(srv.URL).FetchContests(context.Background(), model.PlatformCodeforces)
	var upstream *fetch.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status code: got %d", upstream.StatusCode)
	}
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	_, err := testAdapter(srv.URL).FetchContests(context.Background(), model.PlatformCodeforces)
	var malformed *fetch.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
}
