package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tasktracker/internal/export"
	"tasktracker/internal/models"
	"tasktracker/internal/pdf"
	"tasktracker/internal/services"
)

type TaskHandler struct {
	service services.TaskService
	reports pdf.Generator
	now     func() time.Time
}

func NewTaskHandler(service services.TaskService, reports pdf.Generator) *TaskHandler {
	return &TaskHandler{service: service, reports: reports, now: time.Now}
}

type taskListResponse struct {
	Tasks      []models.TaskView `json:"tasks"`
	Pagination models.Pagination `json:"pagination"`
}

// @Summary      List tasks
// @Description  Paginated list of tasks created by the caller
// @Tags         Tasks
// @Produce      json
// @Param        page       query  int     false  "Page (default 1)"
// @Param        limit      query  int     false  "Page size (default 10, max 100)"
// @Param        status     query  string  false  "pending | in-progress | completed | all"
// @Param        priority   query  string  false  "low | medium | high | all"
// @Param        assignee   query  string  false  "Assignee user id"
// @Param        search     query  string  false  "Substring of title, description or assignee name"
// @Param        sortBy     query  string  false  "createdAt | updatedAt | dueDate | priority | status | title | completedAt"
// @Param        sortOrder  query  string  false  "asc | desc"
// @Param        dueDate    query  string  false  "Calendar day (YYYY-MM-DD)"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	who, found := getIdentity(c)
	if !found {
		return
	}
	var params services.TaskListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondFail(c, http.StatusBadRequest, "Validation failed", bindErrors(err))
		return
	}

	page, err := h.service.List(c.Request.Context(), who, params)
	if err != nil {
		respondError(c, "task][list", err)
		return
	}
	respondOK(c, http.StatusOK, taskListResponse{
		Tasks:      models.TaskViews(page.Tasks, h.now()),
		Pagination: page.Pagination,
	}, "")
}

// @Summary      Get task
// @Tags         Tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	who, found := getIdentity(c)
	if !found {
		return
	}
	task, err := h.service.Get(c.Request.Context(), who, c.Param("id"))
	if err != nil {
		respondError(c, "task][get", err)
		return
	}
	respondOK(c, http.StatusOK, task.View(h.now()), "")
}

// @Summary      Create task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        task  body      services.CreateTaskInput  true  "Task"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	who, found := getIdentity(c)
	if !found {
		return
	}
	var in services.CreateTaskInput
	if !bindJSON(c, "task][create", &in) {
		return
	}

	task, err := h.service.Create(c.Request.Context(), who, in)
	if err != nil {
		respondError(c, "task][create", err)
		return
	}
	respondOK(c, http.StatusCreated, task.View(h.now()), "Task created successfully")
}

// @Summary      Update task
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "Task ID"
// @Param        task  body      services.UpdateTaskInput  true  "Fields to change"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	who, found := getIdentity(c)
	if !found {
		return
	}
	var in services.UpdateTaskInput
	if !bindJSON(c, "task][update", &in) {
		return
	}

	task, err := h.service.Update(c.Request.Context(), who, c.Param("id"), in)
	if err != nil {
		respondError(c, "task][update", err)
		return
	}
	respondOK(c, http.StatusOK, task.View(h.now()), "Task updated successfully")
}

// @Summary      Delete task
// @Tags         Tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	who, found := getIdentity(c)
	if !found {
		return
	}
	if err := h.service.Delete(c.Request.Context(), who, c.Param("id")); err != nil {
		respondError(c, "task][delete", err)
		return
	}
	respondOK(c, http.StatusOK, nil, "Task deleted successfully")
}

// @Summary      Task statistics
// @Description  Aggregates over tasks the caller created or is assigned to
// @Tags         Tasks
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/tasks/stats [get]
func (h *TaskHandler) Stats(c *gin.Context) {
	who, found := getIdentity(c)
	if !found {
		return
	}
	st, err := h.service.Stats(c.Request.Context(), who)
	if err != nil {
		respondError(c, "task][stats", err)
		return
	}
	respondOK(c, http.StatusOK, st, "")
}

type bulkUpdateRequest struct {
	TaskIDs json.RawMessage `json:"taskIds"`
	Updates json.RawMessage `json:"updates"`
}

// @Summary      Bulk update tasks
// @Description  Applies one allow-listed patch to the caller's tasks among taskIds
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]interface{}  true  "{taskIds: [...], updates: {...}}"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      403   {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/tasks/bulk [patch]
func (h *TaskHandler) BulkUpdate(c *gin.Context) {
	who, found := getIdentity(c)
	if !found {
		return
	}
	var req bulkUpdateRequest
	if !bindJSON(c, "task][bulk", &req) {
		return
	}

	var ids []string
	if err := json.Unmarshal(req.TaskIDs, &ids); err != nil || len(ids) == 0 {
		respondFail(c, http.StatusBadRequest, "Task IDs array is required", nil)
		return
	}
	var updates services.BulkTaskUpdates
	if len(req.Updates) == 0 {
		respondFail(c, http.StatusBadRequest, "Validation failed",
			[]models.FieldError{{Field: "updates", Message: "updates is required"}})
		return
	}
	if err := decodeStrict(req.Updates, &updates); err != nil {
		log.Printf("[task][bulk][bind][err] %v", err)
		respondFail(c, http.StatusBadRequest, "Validation failed", prefixed("updates", bindErrors(err)))
		return
	}

	res, err := h.service.BulkUpdate(c.Request.Context(), who, services.BulkUpdateInput{TaskIDs: ids, Updates: updates})
	if err != nil {
		respondError(c, "task][bulk", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"matchedCount":  res.MatchedCount,
		"modifiedCount": res.ModifiedCount,
	}, fmt.Sprintf("%d tasks updated successfully", res.ModifiedCount))
}

// @Summary      Export tasks
// @Description  Tasks the caller created or is assigned to, as json, csv or pdf
// @Tags         Tasks
// @Produce      json
// @Produce      text/csv
// @Produce      application/pdf
// @Param        format  query  string  false  "json (default) | csv | pdf"
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /api/tasks/export [get]
func (h *TaskHandler) Export(c *gin.Context) {
	who, found := getIdentity(c)
	if !found {
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "json")))
	if format != "json" && format != "csv" && format != "pdf" {
		respondFail(c, http.StatusBadRequest, "Validation failed",
			[]models.FieldError{{Field: "format", Message: "format must be one of: json, csv, pdf"}})
		return
	}

	ctx := c.Request.Context()
	tasks, err := h.service.Export(ctx, who)
	if err != nil {
		respondError(c, "task][export", err)
		return
	}

	switch format {
	case "csv":
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, tasks); err != nil {
			respondError(c, "task][export][csv", err)
			return
		}
		attachment(c, export.CSVFilename)
		c.Data(http.StatusOK, export.CSVContentType, buf.Bytes())
	case "pdf":
		st, err := h.service.Stats(ctx, who)
		if err != nil {
			respondError(c, "task][export][pdf", err)
			return
		}
		var buf bytes.Buffer
		err = h.reports.GenerateTaskReport(&buf, pdf.TaskReportData{
			Owner:     who.Username,
			Tasks:     tasks,
			Stats:     st,
			CreatedAt: h.now(),
		})
		if err != nil {
			respondError(c, "task][export][pdf", err)
			return
		}
		attachment(c, pdf.Filename)
		c.Data(http.StatusOK, pdf.ContentType, buf.Bytes())
	default:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    models.TaskViews(tasks, h.now()),
			"count":   len(tasks),
		})
	}
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
}

func prefixed(prefix string, errs []models.FieldError) []models.FieldError {
	for i := range errs {
		if errs[i].Field != "" && errs[i].Field != "body" {
			errs[i].Field = prefix + "." + errs[i].Field
		}
	}
	return errs
}
