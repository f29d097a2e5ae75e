package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/taskmind/taskmind/internal/domain"
	"github.com/taskmind/taskmind/internal/logger"
	"github.com/taskmind/taskmind/internal/planfix"
	"github.com/taskmind/taskmind/internal/repository"
)

// stubUpstream serves a fixed workspace over the upstream API shape.
type stubUpstream struct {
	employees       []planfix.EmployeeRecord
	projects        []planfix.ProjectRecord
	tasks           []planfix.TaskRecord
	comments        map[string][]planfix.CommentRecord
	taskStatuses    []planfix.StatusRecord
	projectStatuses []planfix.StatusRecord
	customFields    []planfix.CustomFieldRecord
}

func (u *stubUpstream) handler() http.Handler {
	writeItems := func(w http.ResponseWriter, items interface{}, total int) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": items,
			"total": total,
		})
	}
	writePage := func(w http.ResponseWriter, r *http.Request, total int, slice func(offset, end int) interface{}) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = total
		}
		end := offset + limit
		if end > total {
			end = total
		}
		if offset > total {
			offset = total
		}
		writeItems(w, slice(offset, end), total)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/employees", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, r, len(u.employees), func(o, e int) interface{} { return u.employees[o:e] })
	})
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, r, len(u.projects), func(o, e int) interface{} { return u.projects[o:e] })
	})
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		writePage(w, r, len(u.tasks), func(o, e int) interface{} { return u.tasks[o:e] })
	})
	mux.HandleFunc("/tasks/", func(w http.ResponseWriter, r *http.Request) {
		taskID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/tasks/"), "/comments")
		writeItems(w, u.comments[taskID], len(u.comments[taskID]))
	})
	mux.HandleFunc("/task-statuses", func(w http.ResponseWriter, r *http.Request) {
		writeItems(w, u.taskStatuses, len(u.taskStatuses))
	})
	mux.HandleFunc("/project-statuses", func(w http.ResponseWriter, r *http.Request) {
		writeItems(w, u.projectStatuses, len(u.projectStatuses))
	})
	mux.HandleFunc("/task-custom-fields", func(w http.ResponseWriter, r *http.Request) {
		writeItems(w, u.customFields, len(u.customFields))
	})
	return mux
}

func newSyncFixture(t *testing.T, upstream *stubUpstream, pageSize int) (*SyncService, *gorm.DB, func()) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "sync.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	srv := httptest.NewServer(upstream.handler())
	client := planfix.NewClient(&planfix.Config{BaseURL: srv.URL, APIKey: "k"})

	svc := NewSyncService(
		client,
		repository.NewUserRepository(db),
		repository.NewProjectRepository(db),
		repository.NewTaskRepository(db),
		repository.NewCommentRepository(db),
		pageSize,
		logger.New(nil),
	)
	return svc, db, srv.Close
}

func testUpstream() *stubUpstream {
	created := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return &stubUpstream{
		employees: []planfix.EmployeeRecord{
			{ID: "u-1", Username: "marina", Email: "marina@example.com"},
			{ID: "u-2", Username: "pavel"},
		},
		projects: []planfix.ProjectRecord{
			{ID: "p-1", Name: "Website redesign", Status: "ps-1", CreatedDate: created},
		},
		tasks: []planfix.TaskRecord{
			{ID: "t-1", Title: "Fix bug in parser", Status: "st-1", Priority: "High", CreatedDate: created,
				Project:      &planfix.ProjectRef{ID: "p-1", Name: "Website redesign"},
				CustomFields: map[string]interface{}{"cf-7": "24"}},
			{ID: "t-2", Title: "Write documentation", Status: "Open", Priority: "odd-value", CreatedDate: created},
			{ID: "t-3", Title: "Deploy website", Status: "st-2", Priority: "Low", CreatedDate: created},
		},
		taskStatuses: []planfix.StatusRecord{
			{ID: "st-1", Name: "In progress"},
			{ID: "st-2", Name: "Done"},
		},
		projectStatuses: []planfix.StatusRecord{
			{ID: "ps-1", Name: "Active"},
		},
		customFields: []planfix.CustomFieldRecord{
			{ID: "cf-7", Name: "Sprint", Type: "number"},
		},
		comments: map[string][]planfix.CommentRecord{
			"t-1": {
				{ID: "c-1", TaskID: "t-1", Text: "reproduced", CreatedDate: created,
					Author: planfix.UserRef{ID: "u-1", Username: "marina"}},
				{ID: "c-2", TaskID: "t-1", Text: "fixed", CreatedDate: created,
					Author: planfix.UserRef{ID: "u-9", Username: "ghost"}},
			},
		},
	}
}

func TestSyncAll(t *testing.T) {
	svc, db, closeSrv := newSyncFixture(t, testUpstream(), 2)
	defer closeSrv()
	ctx := context.Background()

	stats, err := svc.SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if stats.Users != 2 || stats.Projects != 1 || stats.Tasks != 3 || stats.Comments != 2 {
		t.Errorf("stats = %d users, %d projects, %d tasks, %d comments; want 2/1/3/2",
			stats.Users, stats.Projects, stats.Tasks, stats.Comments)
	}

	t.Run("task linked to project row", func(t *testing.T) {
		var task domain.Task
		if err := db.Preload("Project").First(&task, "planfix_id = ?", "t-1").Error; err != nil {
			t.Fatalf("load task: %v", err)
		}
		if task.Project == nil || task.Project.PlanfixID != "p-1" {
			t.Errorf("task project = %+v, want p-1", task.Project)
		}
		if task.Priority != domain.PriorityHigh {
			t.Errorf("priority = %s, want high", task.Priority)
		}
	})

	t.Run("directory ids resolved to names", func(t *testing.T) {
		var task domain.Task
		if err := db.First(&task, "planfix_id = ?", "t-1").Error; err != nil {
			t.Fatalf("load task: %v", err)
		}
		if task.Status != "In progress" {
			t.Errorf("task status = %q, want %q", task.Status, "In progress")
		}
		if got, ok := task.CustomFields["Sprint"]; !ok || got != "24" {
			t.Errorf("custom fields = %v, want Sprint=24", task.CustomFields)
		}

		var project domain.Project
		if err := db.First(&project, "planfix_id = ?", "p-1").Error; err != nil {
			t.Fatalf("load project: %v", err)
		}
		if project.Status != "Active" {
			t.Errorf("project status = %q, want %q", project.Status, "Active")
		}

		// A status that matches no directory entry passes through raw.
		var plain domain.Task
		if err := db.First(&plain, "planfix_id = ?", "t-2").Error; err != nil {
			t.Fatalf("load task: %v", err)
		}
		if plain.Status != "Open" {
			t.Errorf("unresolved status = %q, want %q", plain.Status, "Open")
		}
	})

	t.Run("unknown priority falls back to normal", func(t *testing.T) {
		var task domain.Task
		if err := db.First(&task, "planfix_id = ?", "t-2").Error; err != nil {
			t.Fatalf("load task: %v", err)
		}
		if task.Priority != domain.PriorityNormal {
			t.Errorf("priority = %s, want normal", task.Priority)
		}
	})

	t.Run("comment author resolved when known", func(t *testing.T) {
		var known domain.Comment
		if err := db.Preload("Author").First(&known, "planfix_id = ?", "c-1").Error; err != nil {
			t.Fatalf("load comment: %v", err)
		}
		if known.Author == nil || known.Author.Username != "marina" {
			t.Errorf("author = %+v, want marina", known.Author)
		}

		// Author u-9 was never synced as an employee; the comment still lands.
		var orphan domain.Comment
		if err := db.First(&orphan, "planfix_id = ?", "c-2").Error; err != nil {
			t.Fatalf("load comment: %v", err)
		}
		if orphan.AuthorID != nil {
			t.Errorf("orphan comment has author id %v, want nil", orphan.AuthorID)
		}
	})

	t.Run("repeat run converges without duplicates", func(t *testing.T) {
		if _, err := svc.SyncAll(ctx); err != nil {
			t.Fatalf("second SyncAll: %v", err)
		}
		var tasks, comments, users int64
		db.Model(&domain.Task{}).Count(&tasks)
		db.Model(&domain.Comment{}).Count(&comments)
		db.Model(&domain.User{}).Count(&users)
		if tasks != 3 || comments != 2 || users != 2 {
			t.Errorf("row counts after rerun = %d/%d/%d, want 3/2/2", tasks, comments, users)
		}
	})

	t.Run("upstream edit does not clear vector id", func(t *testing.T) {
		// Mark a task indexed, then re-sync: the upsert updates content
		// columns but leaves the index linkage alone.
		vid := "4"
		if err := db.Model(&domain.Task{}).Where("planfix_id = ?", "t-3").Update("vector_id", vid).Error; err != nil {
			t.Fatalf("set vector id: %v", err)
		}
		if _, err := svc.SyncAll(ctx); err != nil {
			t.Fatalf("SyncAll: %v", err)
		}
		var task domain.Task
		if err := db.First(&task, "planfix_id = ?", "t-3").Error; err != nil {
			t.Fatalf("load task: %v", err)
		}
		if task.VectorID == nil || *task.VectorID != vid {
			t.Errorf("vector_id = %v, want %q preserved", task.VectorID, vid)
		}
	})
}

func TestTaskPriorityNormalization(t *testing.T) {
	testCases := []struct {
		raw  string
		want domain.TaskPriority
	}{
		{"High", domain.PriorityHigh},
		{" urgent ", domain.PriorityUrgent},
		{"LOW", domain.PriorityLow},
		{"", domain.PriorityNormal},
		{"whatever", domain.PriorityNormal},
	}
	for _, tc := range testCases {
		if got := taskPriority(tc.raw); got != tc.want {
			t.Errorf("taskPriority(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}
