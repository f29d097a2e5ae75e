package service

import (
	"strings"
	"testing"
	"time"

	"github.com/taskmind/taskmind/internal/domain"
)

func TestBuildTaskText(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("with project and custom fields", func(t *testing.T) {
		task := &domain.Task{
			Title:       "Fix login bug",
			Description: "Users cannot sign in with SSO",
			Status:      "In Progress",
			Priority:    domain.PriorityHigh,
			CreatedDate: created,
			Project:     &domain.Project{Name: "Auth Platform"},
			CustomFields: domain.JSONMap{
				"sprint":   "24",
				"estimate": 3,
			},
		}

		got := buildTaskText(task)
		want := "Task: Fix login bug\n" +
			"Description: Users cannot sign in with SSO\n" +
			"Status: In Progress\n" +
			"Priority: high\n" +
			"Project: Auth Platform\n" +
			"Custom Fields:\n" +
			"estimate: 3\n" +
			"sprint: 24"
		if got != want {
			t.Errorf("buildTaskText =\n%q\nwant\n%q", got, want)
		}
	})

	t.Run("without project", func(t *testing.T) {
		task := &domain.Task{Title: "Untracked chore", Priority: domain.PriorityNormal}
		got := buildTaskText(task)
		if !strings.Contains(got, "Project: None") {
			t.Errorf("expected 'Project: None' in %q", got)
		}
	})

	t.Run("custom field order is deterministic", func(t *testing.T) {
		task := &domain.Task{
			Title:    "Order check",
			Priority: domain.PriorityNormal,
			CustomFields: domain.JSONMap{
				"zeta": "z", "alpha": "a", "mid": "m",
			},
		}
		first := buildTaskText(task)
		for i := 0; i < 10; i++ {
			if buildTaskText(task) != first {
				t.Fatal("custom field rendering is not stable across calls")
			}
		}
		if strings.Index(first, "alpha") > strings.Index(first, "zeta") {
			t.Error("custom fields not sorted by key")
		}
	})
}

func TestBuildProjectText(t *testing.T) {
	project := &domain.Project{
		Name:        "Website Redesign",
		Description: "Refresh the marketing site",
		Status:      "Active",
		CreatedDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	got := buildProjectText(project)
	want := "Project: Website Redesign\n" +
		"Description: Refresh the marketing site\n" +
		"Status: Active\n" +
		"Created: 2026-01-15"
	if got != want {
		t.Errorf("buildProjectText =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildCommentText(t *testing.T) {
	t.Run("with author and task", func(t *testing.T) {
		comment := &domain.Comment{
			Text:        "Deployed the fix to staging",
			CreatedDate: time.Date(2026, 2, 2, 12, 30, 0, 0, time.UTC),
			Author:      &domain.User{Username: "marina"},
			Task:        &domain.Task{Title: "Fix login bug"},
		}
		got := buildCommentText(comment)
		want := "Comment by marina on task 'Fix login bug' (2026-02-02):\nDeployed the fix to staging"
		if got != want {
			t.Errorf("buildCommentText = %q, want %q", got, want)
		}
	})

	t.Run("without author", func(t *testing.T) {
		comment := &domain.Comment{
			Text:        "ping",
			CreatedDate: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		}
		got := buildCommentText(comment)
		if !strings.HasPrefix(got, "Comment by unknown") {
			t.Errorf("expected unknown author prefix, got %q", got)
		}
	})
}

func TestEntityMetadata(t *testing.T) {
	deadline := time.Date(2026, 4, 1, 17, 0, 0, 0, time.UTC)
	task := &domain.Task{
		ID:        7,
		PlanfixID: "pf-7",
		Title:     "Fix login bug",
		Status:    "Open",
		Priority:  domain.PriorityUrgent,
		Deadline:  &deadline,
		Project:   &domain.Project{ID: 2, Name: "Auth Platform"},
	}

	md := taskMetadata(task)
	if md["type"] != "task" {
		t.Errorf("type = %v, want task", md["type"])
	}
	if md["planfix_id"] != "pf-7" || md["database_id"] != uint(7) {
		t.Errorf("identity fields wrong: %v", md)
	}
	if md["deadline"] != "2026-04-01T17:00:00Z" {
		t.Errorf("deadline = %v", md["deadline"])
	}
	if md["project_name"] != "Auth Platform" {
		t.Errorf("project_name = %v", md["project_name"])
	}

	pmd := projectMetadata(&domain.Project{ID: 2, PlanfixID: "pf-p2", Name: "Auth Platform"})
	if pmd["type"] != "project" || pmd["database_id"] != uint(2) {
		t.Errorf("project metadata wrong: %v", pmd)
	}

	cmd := commentMetadata(&domain.Comment{ID: 3, PlanfixID: "pf-c3", TaskID: 7})
	if cmd["type"] != "comment" || cmd["task_id"] != uint(7) {
		t.Errorf("comment metadata wrong: %v", cmd)
	}
}
