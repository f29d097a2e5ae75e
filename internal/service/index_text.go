package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/taskmind/taskmind/internal/domain"
)

// Canonical text synthesis for indexing. Each entity class renders to a
// structured template so semantically equivalent records embed identically
// across runs.

func buildTaskText(task *domain.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", task.Title)
	fmt.Fprintf(&b, "Description: %s\n", task.Description)
	fmt.Fprintf(&b, "Status: %s\n", task.Status)
	fmt.Fprintf(&b, "Priority: %s\n", task.Priority)
	projectName := "None"
	if task.Project != nil {
		projectName = task.Project.Name
	}
	fmt.Fprintf(&b, "Project: %s", projectName)
	appendCustomFields(&b, task.CustomFields)
	return b.String()
}

func buildProjectText(project *domain.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "Description: %s\n", project.Description)
	fmt.Fprintf(&b, "Status: %s\n", project.Status)
	fmt.Fprintf(&b, "Created: %s", project.CreatedDate.Format("2006-01-02"))
	appendCustomFields(&b, project.CustomFields)
	return b.String()
}

func buildCommentText(comment *domain.Comment) string {
	author := "unknown"
	if comment.Author != nil {
		author = comment.Author.Username
	}
	taskTitle := ""
	if comment.Task != nil {
		taskTitle = comment.Task.Title
	}
	return fmt.Sprintf("Comment by %s on task '%s' (%s):\n%s",
		author, taskTitle, comment.CreatedDate.Format("2006-01-02"), comment.Text)
}

// appendCustomFields renders custom fields sorted by key so the text is
// deterministic across runs.
func appendCustomFields(b *strings.Builder, fields domain.JSONMap) {
	if len(fields) == 0 {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("\nCustom Fields:")
	for _, k := range keys {
		fmt.Fprintf(b, "\n%s: %v", k, fields[k])
	}
}

func taskMetadata(task *domain.Task) map[string]interface{} {
	md := map[string]interface{}{
		"type":        "task",
		"planfix_id":  task.PlanfixID,
		"database_id": task.ID,
		"title":       task.Title,
		"status":      task.Status,
		"priority":    string(task.Priority),
	}
	if task.Deadline != nil {
		md["deadline"] = task.Deadline.Format("2006-01-02T15:04:05Z07:00")
	}
	if task.Project != nil {
		md["project_id"] = task.Project.ID
		md["project_name"] = task.Project.Name
	}
	return md
}

func projectMetadata(project *domain.Project) map[string]interface{} {
	return map[string]interface{}{
		"type":         "project",
		"planfix_id":   project.PlanfixID,
		"database_id":  project.ID,
		"name":         project.Name,
		"status":       project.Status,
		"created_date": project.CreatedDate.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func commentMetadata(comment *domain.Comment) map[string]interface{} {
	md := map[string]interface{}{
		"type":         "comment",
		"planfix_id":   comment.PlanfixID,
		"database_id":  comment.ID,
		"task_id":      comment.TaskID,
		"created_date": comment.CreatedDate.Format("2006-01-02T15:04:05Z07:00"),
	}
	if comment.Task != nil {
		md["task_title"] = comment.Task.Title
	}
	if comment.Author != nil {
		md["author_id"] = comment.Author.ID
		md["author_name"] = comment.Author.Username
	}
	return md
}
