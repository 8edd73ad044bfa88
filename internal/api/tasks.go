package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/auth"
	"github.com/taskboard/taskboard/internal/model"
	"github.com/taskboard/taskboard/internal/task"
)

type createTaskRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Priority        string   `json:"priority"`
	Tags            []string `json:"tags"`
	DueDate         string   `json:"due_date"`
	Assignees       []string `json:"assignees"`
	ReminderPresets []string `json:"reminder_presets"`
}

// handleCreateTask handles POST /tasks. Any status in the payload is
// ignored: tasks always start in To Do.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation("body", "invalid request payload"))
		return
	}

	dueDate, err := parseOptionalTime("due_date", req.DueDate)
	if err != nil {
		respondError(w, err)
		return
	}

	created, err := s.tasks.Create(r.Context(), auth.UserID(r.Context()), task.CreateInput{
		Title:           req.Title,
		Description:     req.Description,
		Priority:        req.Priority,
		Tags:            req.Tags,
		DueDate:         dueDate,
		Assignees:       req.Assignees,
		ReminderPresets: req.ReminderPresets,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

type updateTaskRequest struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Status          *string   `json:"status"`
	Priority        *string   `json:"priority"`
	Tags            *[]string `json:"tags"`
	DueDate         *string   `json:"due_date"`
	Assignees       *[]string `json:"assignees"`
	ReminderPresets []string  `json:"reminder_presets"`
}

// handleUpdateTask handles PATCH /tasks/{taskID}. Absent fields keep
// their prior values; an empty due_date string clears the due date.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation("body", "invalid request payload"))
		return
	}

	in := task.UpdateInput{
		Title:           req.Title,
		Description:     req.Description,
		Status:          req.Status,
		Priority:        req.Priority,
		ReminderPresets: req.ReminderPresets,
	}
	if req.Tags != nil {
		in.Tags = *req.Tags
		in.TagsSet = true
	}
	if req.Assignees != nil {
		in.Assignees = *req.Assignees
		in.AssigneesSet = true
	}
	if req.DueDate != nil {
		in.DueDateSet = true
		if *req.DueDate != "" {
			due, err := parseTime("due_date", *req.DueDate)
			if err != nil {
				respondError(w, err)
				return
			}
			in.DueDate = &due
		}
	}

	updated, err := s.tasks.Update(r.Context(), mux.Vars(r)["taskID"], auth.UserID(r.Context()), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// handleGetTask handles GET /tasks/{taskID}, returning the task with
// its comments.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, comments, err := s.tasks.Get(r.Context(), mux.Vars(r)["taskID"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		*model.Task
		Comments []model.Comment `json:"comments"`
	}{Task: t, Comments: comments})
}

// handleDeleteTask handles DELETE /tasks/{taskID}.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.Delete(r.Context(), mux.Vars(r)["taskID"]); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBulkDeleteTasks handles POST/DELETE /tasks/bulk-delete.
func (s *Server) handleBulkDeleteTasks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskIDs []string `json:"task_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation("body", "invalid request payload"))
		return
	}
	if len(req.TaskIDs) == 0 {
		respondError(w, apperr.Validation("task_ids", "must not be empty"))
		return
	}

	count, err := s.tasks.BulkDelete(r.Context(), req.TaskIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

// handleListTasks handles GET /tasks with comma-separated multi-value
// filters.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	dueFrom, err := parseOptionalTime("due_date_from", q.Get("due_date_from"))
	if err != nil {
		respondError(w, err)
		return
	}
	dueTo, err := parseOptionalTime("due_date_to", q.Get("due_date_to"))
	if err != nil {
		respondError(w, err)
		return
	}

	pageSize := parseIntParam(q.Get("page_size"), s.cfg.List.DefaultPageSize)
	if pageSize > s.cfg.List.MaxPageSize {
		pageSize = s.cfg.List.MaxPageSize
	}

	items, pagination, err := s.tasks.List(r.Context(), task.ListInput{
		Statuses:    splitCSV(q.Get("status")),
		Priorities:  splitCSV(q.Get("priority")),
		Tags:        splitCSV(q.Get("tags")),
		AssigneeIDs: splitCSV(q.Get("assignee_ids")),
		DueFrom:     dueFrom,
		DueTo:       dueTo,
		Query:       q.Get("q"),
		SortBy:      q.Get("sort_by"),
		SortDesc:    q.Get("sort_order") == "desc",
		Page:        parseIntParam(q.Get("page"), 1),
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	if items == nil {
		items = []model.Task{}
	}
	respondJSON(w, http.StatusOK, struct {
		Tasks      []model.Task     `json:"tasks"`
		Pagination *task.Pagination `json:"pagination"`
	}{Tasks: items, Pagination: pagination})
}
