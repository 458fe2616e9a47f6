package database

import (
	"errors"
	"testing"
	"time"
)

func TestCreateTaskDefaults(t *testing.T) {
	db := testDB(t)
	tasks := NewTaskService(db)

	task, err := tasks.Create(&Task{User: "u1", Title: "Do it"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if task.Priority != PriorityMedium {
		t.Errorf("Priority: got %q, want medium", task.Priority)
	}
	if task.Status != TaskToDo {
		t.Errorf("Status: got %q, want %q", task.Status, TaskToDo)
	}
	if task.Completed {
		t.Error("new task should not be completed")
	}

	got, err := tasks.GetByID(task.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ParentTask != nil || got.Project != nil {
		t.Errorf("optional refs should be nil, got parent=%v project=%v", got.ParentTask, got.Project)
	}
}

func TestListTopLevelExcludesSubtasks(t *testing.T) {
	db := testDB(t)
	tasks := NewTaskService(db)

	parent, err := tasks.Create(&Task{User: "u1", Title: "T1"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	child, err := tasks.Create(&Task{User: "u1", Title: "T2", ParentTask: &parent.ID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	top, err := tasks.ListTopLevel("u1")
	if err != nil {
		t.Fatalf("ListTopLevel failed: %v", err)
	}
	if len(top) != 1 || top[0].ID != parent.ID {
		t.Fatalf("ListTopLevel: got %d tasks, want only the parent", len(top))
	}

	subs, err := tasks.ListSubtasks("u1", parent.ID)
	if err != nil {
		t.Fatalf("ListSubtasks failed: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != child.ID {
		t.Fatalf("ListSubtasks: got %d tasks, want only the child", len(subs))
	}
}

func TestDeleteTaskRemovesOneLevelOnly(t *testing.T) {
	db := testDB(t)
	tasks := NewTaskService(db)

	grandparent, err := tasks.Create(&Task{User: "u1", Title: "grandparent"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	parent, err := tasks.Create(&Task{User: "u1", Title: "parent", ParentTask: &grandparent.ID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	grandchild, err := tasks.Create(&Task{User: "u1", Title: "grandchild", ParentTask: &parent.ID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := tasks.Delete(grandparent.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := tasks.GetByID(grandparent.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("grandparent: got %v, want ErrNotFound", err)
	}
	if _, err := tasks.GetByID(parent.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("direct subtask: got %v, want ErrNotFound", err)
	}
	// Two levels down is out of reach of the cascade.
	if _, err := tasks.GetByID(grandchild.ID); err != nil {
		t.Errorf("grandchild should survive, got %v", err)
	}
}

func TestCompleteSetsFlagOnly(t *testing.T) {
	db := testDB(t)
	tasks := NewTaskService(db)

	task, err := tasks.Create(&Task{User: "u1", Title: "T", Status: TaskInProgress})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := tasks.Complete(task.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, err := tasks.GetByID(task.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Completed {
		t.Error("task should be completed")
	}
	// The status field is left alone; the completed flag is the redundant
	// one and the two may disagree.
	if got.Status != TaskInProgress {
		t.Errorf("Status: got %q, want %q", got.Status, TaskInProgress)
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	tasks := NewTaskService(db)

	projectID := "p1"
	due := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	groceries, err := tasks.Create(&Task{
		User: "u1", Title: "Buy Groceries", Description: "milk and eggs",
		Priority: PriorityHigh, Category: "Errands", DueDate: &due, Project: &projectID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	report, err := tasks.Create(&Task{
		User: "u1", Title: "Write report", Description: "quarterly numbers",
		Priority: PriorityLow, Status: TaskInProgress,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	sub, err := tasks.Create(&Task{User: "u1", Title: "Chase GROCERY receipts", ParentTask: &groceries.ID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := tasks.Create(&Task{User: "u2", Title: "Buy groceries too"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := tasks.Complete(report.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	boolPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name   string
		filter TaskFilter
		want   []string
	}{
		{
			name:   "no filters scopes to owner",
			filter: TaskFilter{},
			want:   []string{groceries.ID, report.ID, sub.ID},
		},
		{
			name:   "keyword case-insensitive on title or description",
			filter: TaskFilter{Keyword: "grocer"},
			want:   []string{groceries.ID, sub.ID},
		},
		{
			name:   "keyword matches description",
			filter: TaskFilter{Keyword: "QUARTERLY"},
			want:   []string{report.ID},
		},
		{
			name:   "priority exact",
			filter: TaskFilter{Priority: PriorityHigh},
			want:   []string{groceries.ID},
		},
		{
			name:   "status exact",
			filter: TaskFilter{Status: TaskInProgress},
			want:   []string{report.ID},
		},
		{
			name:   "category substring case-insensitive",
			filter: TaskFilter{Category: "errand"},
			want:   []string{groceries.ID},
		},
		{
			name:   "project exact",
			filter: TaskFilter{Project: projectID},
			want:   []string{groceries.ID},
		},
		{
			name:   "completed true",
			filter: TaskFilter{Completed: boolPtr(true)},
			want:   []string{report.ID},
		},
		{
			name:   "completed false",
			filter: TaskFilter{Completed: boolPtr(false)},
			want:   []string{groceries.ID, sub.ID},
		},
		{
			name:   "top-level sentinel",
			filter: TaskFilter{TopLevelOnly: true},
			want:   []string{groceries.ID, report.ID},
		},
		{
			name:   "by parent task",
			filter: TaskFilter{ParentTask: groceries.ID},
			want:   []string{sub.ID},
		},
		{
			name:   "due date exact",
			filter: TaskFilter{DueDate: &due},
			want:   []string{groceries.ID},
		},
		{
			name:   "filters combine with AND",
			filter: TaskFilter{Keyword: "grocer", TopLevelOnly: true},
			want:   []string{groceries.ID},
		},
		{
			name:   "no match",
			filter: TaskFilter{Keyword: "grocer", Priority: PriorityLow},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tasks.Search("u1", tt.filter)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("result count: got %d, want %d", len(got), len(tt.want))
			}
			wantSet := map[string]bool{}
			for _, id := range tt.want {
				wantSet[id] = true
			}
			for _, task := range got {
				if !wantSet[task.ID] {
					t.Errorf("unexpected task %q (%s)", task.Title, task.ID)
				}
			}
		})
	}
}

func TestUpdateTask(t *testing.T) {
	db := testDB(t)
	tasks := NewTaskService(db)

	task, err := tasks.Create(&Task{User: "u1", Title: "before"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	task.Title = "after"
	task.Status = TaskBlocked
	task.Completed = true
	if err := tasks.Update(task); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := tasks.GetByID(task.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "after" || got.Status != TaskBlocked || !got.Completed {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := tasks.Update(&Task{ID: "missing", User: "u1", Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("updating missing task: got %v, want ErrNotFound", err)
	}
}
