package httpapi

import (
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/hararihq/prosperity/internal/server/models"
	"github.com/hararihq/prosperity/internal/server/repositories/reports"
	"github.com/hararihq/prosperity/internal/server/services"
)

const (
	defaultPageSize    = 10
	maxPageSize        = 100
	maxAttachmentFiles = 10
)

// reportPayload is the wire form of a report.
type reportPayload struct {
	ID string `json:"id"`

	Name         string `json:"name"`
	ReportType   string `json:"reportType"`
	Type         string `json:"type"`
	ReceiverName string `json:"receiverName"`
	Objective    string `json:"objective"`
	Description  string `json:"description"`

	Importance   string `json:"importance"`
	MainPoints   string `json:"mainPoints"`
	Sources      string `json:"sources"`
	Roles        string `json:"roles"`
	Trends       string `json:"trends"`
	Themes       string `json:"themes"`
	Implications string `json:"implications"`
	Scenarios    string `json:"scenarios"`
	FuturePlans  string `json:"futurePlans"`

	ApprovingBody string `json:"approvingBody"`
	SenderName    string `json:"senderName"`
	Role          string `json:"role"`
	Date          string `json:"date"`

	Attachments    []string `json:"attachments"`
	LinkAttachment string   `json:"linkAttachment"`

	Status string `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toReportPayload(m *models.Report) *reportPayload {
	attachments := make([]string, 0, len(m.Attachments))
	for _, key := range m.Attachments {
		attachments = append(attachments, path.Base(key))
	}
	return &reportPayload{
		ID:             m.ID,
		Name:           m.Name,
		ReportType:     m.ReportType,
		Type:           m.Type,
		ReceiverName:   m.ReceiverName,
		Objective:      m.Objective,
		Description:    m.Description,
		Importance:     m.Importance,
		MainPoints:     m.MainPoints,
		Sources:        m.Sources,
		Roles:          m.Roles,
		Trends:         m.Trends,
		Themes:         m.Themes,
		Implications:   m.Implications,
		Scenarios:      m.Scenarios,
		FuturePlans:    m.FuturePlans,
		ApprovingBody:  m.ApprovingBody,
		SenderName:     m.SenderName,
		Role:           m.Role,
		Date:           m.Date,
		Attachments:    attachments,
		LinkAttachment: m.LinkAttachment,
		Status:         m.Status,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func (p *reportPayload) toModel() *models.Report {
	return &models.Report{
		Name:           p.Name,
		ReportType:     p.ReportType,
		Type:           p.Type,
		ReceiverName:   p.ReceiverName,
		Objective:      p.Objective,
		Description:    p.Description,
		Importance:     p.Importance,
		MainPoints:     p.MainPoints,
		Sources:        p.Sources,
		Roles:          p.Roles,
		Trends:         p.Trends,
		Themes:         p.Themes,
		Implications:   p.Implications,
		Scenarios:      p.Scenarios,
		FuturePlans:    p.FuturePlans,
		ApprovingBody:  p.ApprovingBody,
		SenderName:     p.SenderName,
		Role:           p.Role,
		Date:           p.Date,
		LinkAttachment: p.LinkAttachment,
		Status:         p.Status,
	}
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	list, total, err := s.reports.List(r.Context(), account.ID, reports.ListFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	payload := make([]*reportPayload, 0, len(list))
	for _, m := range list {
		payload = append(payload, toReportPayload(m))
	}
	totalPages := (total + int64(limit) - 1) / int64(limit)

	writeJSON(w, http.StatusOK, map[string]any{
		"reports": payload,
		"pagination": map[string]any{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())

	var req reportPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeValidationError(w, []FieldError{{Field: "name", Message: "is required"}})
		return
	}

	report, err := s.reports.Create(r.Context(), account.ID, req.toModel())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Report created successfully",
		"report":  toReportPayload(report),
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())

	report, err := s.reports.Get(r.Context(), account.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": toReportPayload(report)})
}

func (s *Server) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())

	var req reportPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	report, err := s.reports.Update(r.Context(), account.ID, r.PathValue("id"), req.toModel())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Report updated successfully",
		"report":  toReportPayload(report),
	})
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())

	if err := s.reports.Delete(r.Context(), account.ID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Report deleted successfully")
}

func (s *Server) handleUploadAttachments(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())

	// Bound the whole request body before parsing; one oversized part must
	// not buffer into memory first.
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxAttachmentFiles)*s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["attachments"]
	if len(files) == 0 {
		writeValidationError(w, []FieldError{{Field: "attachments", Message: "at least one file is required"}})
		return
	}
	if len(files) > maxAttachmentFiles {
		writeValidationError(w, []FieldError{{Field: "attachments", Message: "at most 10 files per upload"}})
		return
	}

	uploads := make([]services.Upload, 0, len(files))
	for _, fh := range files {
		if fh.Size > s.cfg.MaxUploadBytes {
			writeValidationError(w, []FieldError{{Field: "attachments", Message: "file exceeds the maximum size"}})
			return
		}
		f, err := fh.Open()
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid multipart request")
			return
		}
		defer f.Close()
		uploads = append(uploads, services.Upload{Filename: fh.Filename, Body: f})
	}

	report, err := s.reports.AddAttachments(r.Context(), account.ID, r.PathValue("id"), uploads)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Attachments uploaded successfully",
		"report":  toReportPayload(report),
	})
}

func (s *Server) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())

	report, err := s.reports.RemoveAttachment(r.Context(), account.ID, r.PathValue("id"), r.PathValue("filename"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Attachment deleted successfully",
		"report":  toReportPayload(report),
	})
}

func (s *Server) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())

	url, err := s.reports.AttachmentURL(r.Context(), account.ID, r.PathValue("id"), r.PathValue("filename"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"url": url})
}
