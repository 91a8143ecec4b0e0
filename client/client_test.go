package client

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"commhub/collection"
	"commhub/config"
	"commhub/models"
	"commhub/utils"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(&config.BackendConfig{
		BaseURL:        srv.URL,
		Token:          "svc-token",
		TimeoutSeconds: 5,
		PageSize:       10,
	})
}

func TestListMessagesEnvelope(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer svc-token" {
			t.Errorf("missing service token, got %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("expected page=2, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"results":[{"id":5,"subject":"hello"}],"count":23,"next":null,"previous":null}`)
	})

	q := collection.NewQuery(10)
	q.SetPage(2)
	page, err := c.ListMessages(*q)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.TotalCount != 23 || len(page.Items) != 1 || page.Items[0].ID != 5 {
		t.Errorf("unexpected page %+v", page)
	}
	if page.Page != 2 {
		t.Errorf("page number should carry through, got %d", page.Page)
	}
}

func TestRejectionCarriesDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		detail string
	}{
		{"structured detail", 400, `{"detail":"subject required"}`, "subject required"},
		{"error key", 403, `{"error":"forbidden"}`, "forbidden"},
		{"plain text", 500, "boom", "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.GetMessage(1)
			var rejection *utils.ServerRejection
			if !errors.As(err, &rejection) {
				t.Fatalf("expected ServerRejection, got %v", err)
			}
			if rejection.StatusCode != tt.status || rejection.Detail != tt.detail {
				t.Errorf("got %d/%q, want %d/%q",
					rejection.StatusCode, rejection.Detail, tt.status, tt.detail)
			}
			if utils.IsRetryable(err) {
				t.Error("rejections are not retryable")
			}
		})
	}
}

func TestUnreachableBackendIsNetworkError(t *testing.T) {
	c := New(&config.BackendConfig{
		BaseURL:        "http://127.0.0.1:1", // nothing listens here
		TimeoutSeconds: 1,
		PageSize:       10,
	})

	_, err := c.GetMessage(1)
	var netErr *utils.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if !utils.IsRetryable(err) {
		t.Error("network errors are retryable")
	}
}

func TestSubmitMessageMultipart(t *testing.T) {
	draft := models.Draft{
		Subject:       "Field trip",
		Content:       "Details attached",
		MessageTypeID: 2,
		Recipients: []models.Recipient{
			{Kind: models.KindUser, ID: 7},
			{Kind: models.KindUser, ID: 9},
			{Kind: models.KindGroup, ID: 3},
		},
		Attachments: []models.Attachment{
			models.NewStagedAttachment("permission.pdf", "application/pdf", []byte("%PDF")),
			{ID: "41", OriginalFilename: "old.png", FileURL: "/media/old.png"}, // already uploaded
		},
		ParentMessageID: 12,
		IsForward:       true,
	}

	var method string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Fatalf("expected multipart request, got %q (%v)", mediaType, err)
		}

		reader := multipart.NewReader(r.Body, params["boundary"])
		form, err := reader.ReadForm(1 << 20)
		if err != nil {
			t.Fatalf("parsing form: %v", err)
		}

		checks := map[string]string{
			"subject":        "Field trip",
			"content":        "Details attached",
			"message_type":   "2",
			"status":         "sent",
			"parent_message": "12",
			"is_forward":     "true",
		}
		for field, want := range checks {
			if got := form.Value[field]; len(got) != 1 || got[0] != want {
				t.Errorf("field %s: got %v, want %q", field, got, want)
			}
		}

		if got := form.Value["recipient_users"]; len(got) != 2 || got[0] != "7" || got[1] != "9" {
			t.Errorf("recipient_users: got %v", got)
		}
		if got := form.Value["recipient_groups"]; len(got) != 1 || got[0] != "3" {
			t.Errorf("recipient_groups: got %v", got)
		}

		files := form.File["attachments"]
		if len(files) != 1 {
			t.Fatalf("only staged attachments belong in the form, got %d", len(files))
		}
		f, _ := files[0].Open()
		defer f.Close()
		content, _ := io.ReadAll(f)
		if !bytes.Equal(content, []byte("%PDF")) {
			t.Errorf("attachment bytes mangled: %q", content)
		}
		if files[0].Header.Get("Content-Type") != "application/pdf" {
			t.Errorf("attachment content type lost: %q", files[0].Header.Get("Content-Type"))
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":99,"subject":"Field trip","status":"sent"}`)
	})

	msg, err := c.SubmitMessage(draft, models.StatusSent, 0)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if method != "POST" {
		t.Errorf("creation must POST, got %s", method)
	}
	if msg.ID != 99 {
		t.Errorf("unexpected response %+v", msg)
	}
}

func TestSubmitMessageUpdatePuts(t *testing.T) {
	var method, path string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":15,"status":"draft"}`)
	})

	draft := models.Draft{Subject: "s", Content: "c", MessageTypeID: 1,
		Recipients: []models.Recipient{{Kind: models.KindUser, ID: 1}}}
	if _, err := c.SubmitMessage(draft, models.StatusDraft, 15); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if method != "PUT" || path != "/messages/15" {
		t.Errorf("edit must PUT the existing record, got %s %s", method, path)
	}
}

func TestRespondToSchedulePayload(t *testing.T) {
	var body []byte
	var path string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(200)
	})

	if err := c.RespondToSchedule(4, models.ResponseTentative); err != nil {
		t.Fatalf("respond failed: %v", err)
	}
	if path != "/schedules/4/respond" {
		t.Errorf("unexpected path %s", path)
	}
	if string(body) != `{"response":"tentative"}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestNewSchedulePayloadSplitsParticipants(t *testing.T) {
	event := models.ScheduleEvent{
		Title:     "Parent meeting",
		StartTime: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 5, 1, 11, 0, 0, 0, time.UTC),
	}
	payload := NewSchedulePayload(event, []models.Recipient{
		{Kind: models.KindUser, ID: 1},
		{Kind: models.KindGroup, ID: 2},
		{Kind: models.KindUser, ID: 3},
	})

	if len(payload.ParticipantUsers) != 2 || len(payload.ParticipantGroups) != 1 {
		t.Errorf("participants split wrong: users=%v groups=%v",
			payload.ParticipantUsers, payload.ParticipantGroups)
	}
	if payload.StartTime != "2026-05-01T10:00:00Z" {
		t.Errorf("times must be RFC3339, got %q", payload.StartTime)
	}
}
