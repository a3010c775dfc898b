package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"adflow/internal/engine"
	"adflow/internal/models"
)

type createTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	ProducerIDs []string `json:"producer_ids"`
}

func (a *App) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.createTask"
	log := a.Log.WithField("operation", op)
	log.Info("create task")

	var req createTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := a.Engine.CreateTask(r.Context(), actorFrom(r), engine.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        models.TaskType(req.Type),
		ProducerIDs: req.ProducerIDs,
	})
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (a *App) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.listTasks"
	log := a.Log.WithField("operation", op)

	statuses, ok := parseStatuses(r.URL.Query().Get("status"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown status in filter")
		return
	}
	f := models.TaskFilter{
		Statuses:     statuses,
		ComplianceID: r.URL.Query().Get("reviewer"),
		ProducerID:   r.URL.Query().Get("producer"),
		Type:         models.TaskType(r.URL.Query().Get("type")),
	}
	tasks, err := a.Engine.ListTasks(r.Context(), f)
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": tasks})
}

func (a *App) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.getTask"
	log := a.Log.WithField("operation", op)

	task, err := a.Engine.GetTask(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type changeStatusRequest struct {
	Status       string `json:"status"`
	ApprovalDate string `json:"approval_date"`
	ExpiryDate   string `json:"expiry_date"`
	PublishDate  string `json:"publish_date"`
	Remarks      string `json:"remarks"`
}

func (a *App) changeStatusHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.changeStatus"
	log := a.Log.WithField("operation", op)
	log.Info("change task status")

	var req changeStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := a.Engine.ChangeStatus(r.Context(), actorFrom(r), chi.URLParam(r, "taskID"), engine.ChangeStatusInput{
		To:           models.Status(req.Status),
		ApprovalDate: req.ApprovalDate,
		ExpiryDate:   req.ExpiryDate,
		PublishDate:  req.PublishDate,
		Remarks:      req.Remarks,
	})
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

const maxUploadBytes = 32 << 20

func (a *App) uploadVersionHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.uploadVersion"
	log := a.Log.WithField("operation", op)
	log.Info("upload version")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "multipart form with a file field required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field required")
		return
	}
	defer file.Close()

	task, err := a.Engine.UploadVersion(r.Context(), actorFrom(r), chi.URLParam(r, "taskID"), engine.UploadVersionInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	})
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

type addCommentRequest struct {
	Text    string `json:"text"`
	Global  bool   `json:"global"`
	Version int    `json:"version"`
}

func (a *App) addCommentHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.addComment"
	log := a.Log.WithField("operation", op)
	log.Info("add comment")

	var req addCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := a.Engine.AddComment(r.Context(), actorFrom(r), chi.URLParam(r, "taskID"), engine.AddCommentInput{
		Text:    req.Text,
		Global:  req.Global,
		Version: req.Version,
	})
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

type addExchangeApprovalRequest struct {
	Exchange string `json:"exchange"`
	Remarks  string `json:"remarks"`
}

func (a *App) addExchangeApprovalHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.addExchangeApproval"
	log := a.Log.WithField("operation", op)
	log.Info("add exchange approval")

	var req addExchangeApprovalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := a.Engine.AddExchangeApproval(r.Context(), actorFrom(r), chi.URLParam(r, "taskID"), engine.AddExchangeApprovalInput{
		Exchange: req.Exchange,
		Remarks:  req.Remarks,
	})
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

type decideExchangeApprovalRequest struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Remarks   string `json:"remarks"`
	DecidedOn string `json:"decided_on"`
}

func (a *App) decideExchangeApprovalHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.decideExchangeApproval"
	log := a.Log.WithField("operation", op)
	log.Info("decide exchange approval")

	var req decideExchangeApprovalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := a.Engine.DecideExchangeApproval(r.Context(), actorFrom(r), chi.URLParam(r, "taskID"), chi.URLParam(r, "exchange"), engine.DecideExchangeApprovalInput{
		Status:    req.Status,
		Reference: req.Reference,
		Remarks:   req.Remarks,
		DecidedOn: req.DecidedOn,
	})
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *App) taskAuditHandler(w http.ResponseWriter, r *http.Request) {
	const op = "httpapi.taskAudit"
	log := a.Log.WithField("operation", op)

	recs, err := a.Engine.TaskAudit(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		respondError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": recs})
}
