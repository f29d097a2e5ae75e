package planfix

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(&Config{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		AccountID: "acct-1",
	})
	return client, srv
}

func TestGetTasksPaging(t *testing.T) {
	tasks := []TaskRecord{
		{ID: "t-1", Title: "Fix bug in parser", Status: "Open"},
		{ID: "t-2", Title: "Write documentation", Status: "Open"},
		{ID: "t-3", Title: "Deploy website", Status: "Done"},
	}

	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks" {
			t.Errorf("path = %s, want /tasks", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Account-ID"); got != "acct-1" {
			t.Errorf("X-Account-ID = %q", got)
		}

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		end := offset + limit
		if end > len(tasks) {
			end = len(tasks)
		}
		var items []TaskRecord
		if offset < len(tasks) {
			items = tasks[offset:end]
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": items,
			"total": len(tasks),
		})
	}))
	defer srv.Close()

	ctx := context.Background()

	t.Run("first page", func(t *testing.T) {
		items, total, err := client.GetTasks(ctx, 0, 2)
		if err != nil {
			t.Fatalf("GetTasks: %v", err)
		}
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		if len(items) != 2 || items[0].ID != "t-1" || items[1].ID != "t-2" {
			t.Errorf("unexpected page: %+v", items)
		}
	})

	t.Run("last partial page", func(t *testing.T) {
		items, _, err := client.GetTasks(ctx, 2, 2)
		if err != nil {
			t.Fatalf("GetTasks: %v", err)
		}
		if len(items) != 1 || items[0].ID != "t-3" {
			t.Errorf("unexpected page: %+v", items)
		}
	})

	t.Run("offset past end", func(t *testing.T) {
		items, _, err := client.GetTasks(ctx, 10, 2)
		if err != nil {
			t.Fatalf("GetTasks: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("got %d items past end, want 0", len(items))
		}
	})
}

func TestGetTaskComments(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/t-1/comments" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []CommentRecord{
				{ID: "c-1", TaskID: "t-1", Text: "looks good", Author: UserRef{ID: "u-1", Username: "marina"}},
			},
			"total": 1,
		})
	}))
	defer srv.Close()

	comments, err := client.GetTaskComments(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("GetTaskComments: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(comments))
	}
	if comments[0].Author.Username != "marina" {
		t.Errorf("author = %q, want marina", comments[0].Author.Username)
	}
}

func TestGetTaskStatuses(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/task-statuses" {
			t.Errorf("path = %s, want /task-statuses", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []StatusRecord{
				{ID: "st-1", Name: "Open"},
				{ID: "st-2", Name: "In progress"},
			},
			"total": 2,
		})
	}))
	defer srv.Close()

	statuses, err := client.GetTaskStatuses(context.Background())
	if err != nil {
		t.Fatalf("GetTaskStatuses: %v", err)
	}
	if len(statuses) != 2 || statuses[1].Name != "In progress" {
		t.Errorf("unexpected statuses: %+v", statuses)
	}
}

func TestAPIErrorStatus(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, _, err := client.GetProjects(context.Background(), 0, 10)
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", apiErr.StatusCode)
	}
}
