package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/winsfit/visitdesk/services/directory-service/internal/storage"
)

var staffRoles = map[string]bool{
	"institution_admin": true,
	"receptionist":      true,
	"physiotherapist":   true,
}

// DirectoryHandler serves institution, department, staff and visitor records.
type DirectoryHandler struct {
	institutions *storage.InstitutionRepository
	departments  *storage.DepartmentRepository
	staff        *storage.StaffRepository
	visitors     *storage.VisitorRepository
}

func NewDirectoryHandler(institutions *storage.InstitutionRepository, departments *storage.DepartmentRepository, staff *storage.StaffRepository, visitors *storage.VisitorRepository) *DirectoryHandler {
	return &DirectoryHandler{institutions: institutions, departments: departments, staff: staff, visitors: visitors}
}

type institutionItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type createInstitutionRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type staffItem struct {
	ID            string `json:"id"`
	InstitutionID string `json:"institution_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
}

type createStaffRequest struct {
	InstitutionID string `json:"institution_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          string `json:"role"`
}

type visitorItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

func (h *DirectoryHandler) Institutions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
			inst, err := h.institutions.GetByID(r.Context(), id)
			if err != nil {
				notFoundOr500(w, err, "institution")
				return
			}
			writeJSON(w, http.StatusOK, institutionItem{ID: inst.ID, Name: inst.Name, Address: inst.Address})
			return
		}
		insts, err := h.institutions.List(r.Context())
		if err != nil {
			http.Error(w, "failed to list institutions", http.StatusInternalServerError)
			return
		}
		items := make([]institutionItem, 0, len(insts))
		for _, inst := range insts {
			items = append(items, institutionItem{ID: inst.ID, Name: inst.Name, Address: inst.Address})
		}
		writeJSON(w, http.StatusOK, map[string]any{"institutions": items})
	case http.MethodPost:
		var req createInstitutionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		inst := storage.Institution{ID: uuid.NewString(), Name: req.Name, Address: strings.TrimSpace(req.Address)}
		if err := h.institutions.Create(r.Context(), inst); err != nil {
			http.Error(w, "failed to create institution", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, institutionItem{ID: inst.ID, Name: inst.Name, Address: inst.Address})
	case http.MethodPut:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		var req createInstitutionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		inst := storage.Institution{ID: id, Name: req.Name, Address: strings.TrimSpace(req.Address)}
		if err := h.institutions.Update(r.Context(), inst); err != nil {
			notFoundOr500(w, err, "institution")
			return
		}
		writeJSON(w, http.StatusOK, institutionItem{ID: inst.ID, Name: inst.Name, Address: inst.Address})
	case http.MethodDelete:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		if err := h.institutions.Delete(r.Context(), id); err != nil {
			notFoundOr500(w, err, "institution")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type departmentItem struct {
	ID            string `json:"id"`
	InstitutionID string `json:"institution_id"`
	Name          string `json:"name"`
}

type createDepartmentRequest struct {
	InstitutionID string `json:"institution_id"`
	Name          string `json:"name"`
}

func (h *DirectoryHandler) Departments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if id := strings.TrimSpace(q.Get("id")); id != "" {
			d, err := h.departments.GetByID(r.Context(), id)
			if err != nil {
				notFoundOr500(w, err, "department")
				return
			}
			writeJSON(w, http.StatusOK, departmentItem{ID: d.ID, InstitutionID: d.InstitutionID, Name: d.Name})
			return
		}
		institutionID := strings.TrimSpace(q.Get("institution_id"))
		if institutionID == "" {
			http.Error(w, "missing id or institution_id", http.StatusBadRequest)
			return
		}
		list, err := h.departments.ListByInstitution(r.Context(), institutionID)
		if err != nil {
			http.Error(w, "failed to list departments", http.StatusInternalServerError)
			return
		}
		items := make([]departmentItem, 0, len(list))
		for _, d := range list {
			items = append(items, departmentItem{ID: d.ID, InstitutionID: d.InstitutionID, Name: d.Name})
		}
		writeJSON(w, http.StatusOK, map[string]any{"departments": items})
	case http.MethodPost:
		var req createDepartmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.InstitutionID = strings.TrimSpace(req.InstitutionID)
		req.Name = strings.TrimSpace(req.Name)
		if req.InstitutionID == "" || req.Name == "" {
			http.Error(w, "institution_id and name required", http.StatusBadRequest)
			return
		}
		if _, err := h.institutions.GetByID(r.Context(), req.InstitutionID); err != nil {
			notFoundOr500(w, err, "institution")
			return
		}
		d := storage.Department{ID: uuid.NewString(), InstitutionID: req.InstitutionID, Name: req.Name}
		if err := h.departments.Create(r.Context(), d); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				http.Error(w, "department already exists", http.StatusConflict)
				return
			}
			http.Error(w, "failed to create department", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, departmentItem{ID: d.ID, InstitutionID: d.InstitutionID, Name: d.Name})
	case http.MethodDelete:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		if err := h.departments.Delete(r.Context(), id); err != nil {
			notFoundOr500(w, err, "department")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DirectoryHandler) Staff(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if id := strings.TrimSpace(q.Get("id")); id != "" {
			s, err := h.staff.GetByID(r.Context(), id)
			if err != nil {
				notFoundOr500(w, err, "staff user")
				return
			}
			writeJSON(w, http.StatusOK, toStaffItem(s))
			return
		}
		institutionID := strings.TrimSpace(q.Get("institution_id"))
		if institutionID == "" {
			http.Error(w, "missing id or institution_id", http.StatusBadRequest)
			return
		}
		list, err := h.staff.ListByInstitution(r.Context(), institutionID)
		if err != nil {
			http.Error(w, "failed to list staff", http.StatusInternalServerError)
			return
		}
		items := make([]staffItem, 0, len(list))
		for _, s := range list {
			items = append(items, toStaffItem(s))
		}
		writeJSON(w, http.StatusOK, map[string]any{"staff": items})
	case http.MethodPost:
		var req createStaffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.InstitutionID = strings.TrimSpace(req.InstitutionID)
		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.TrimSpace(req.Email)
		req.Role = strings.ToLower(strings.TrimSpace(req.Role))
		if req.InstitutionID == "" || req.Name == "" || req.Email == "" || req.Password == "" {
			http.Error(w, "institution_id, name, email and password required", http.StatusBadRequest)
			return
		}
		if !staffRoles[req.Role] {
			http.Error(w, "unknown role", http.StatusBadRequest)
			return
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			http.Error(w, "failed to hash password", http.StatusInternalServerError)
			return
		}
		s := storage.Staff{
			ID:            uuid.NewString(),
			InstitutionID: req.InstitutionID,
			Name:          req.Name,
			Email:         req.Email,
			PasswordHash:  hash,
			Role:          req.Role,
		}
		if err := h.staff.Create(r.Context(), s); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				http.Error(w, "email already registered", http.StatusConflict)
				return
			}
			http.Error(w, "failed to create staff user", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, toStaffItem(s))
	case http.MethodPut:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		var req struct {
			Name string `json:"name"`
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Role = strings.ToLower(strings.TrimSpace(req.Role))
		if req.Name == "" || !staffRoles[req.Role] {
			http.Error(w, "name and a known role required", http.StatusBadRequest)
			return
		}
		if err := h.staff.Update(r.Context(), storage.Staff{ID: id, Name: req.Name, Role: req.Role}); err != nil {
			notFoundOr500(w, err, "staff user")
			return
		}
		s, err := h.staff.GetByID(r.Context(), id)
		if err != nil {
			notFoundOr500(w, err, "staff user")
			return
		}
		writeJSON(w, http.StatusOK, toStaffItem(s))
	case http.MethodDelete:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		if err := h.staff.Delete(r.Context(), id); err != nil {
			notFoundOr500(w, err, "staff user")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DirectoryHandler) Visitors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getVisitors(w, r)
	case http.MethodPut:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		var req struct {
			Name  string `json:"name"`
			Phone string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		if err := h.visitors.Update(r.Context(), storage.Visitor{ID: id, Name: req.Name, Phone: strings.TrimSpace(req.Phone)}); err != nil {
			notFoundOr500(w, err, "visitor")
			return
		}
		v, err := h.visitors.GetByID(r.Context(), id)
		if err != nil {
			notFoundOr500(w, err, "visitor")
			return
		}
		writeJSON(w, http.StatusOK, visitorItem{ID: v.ID, Name: v.Name, Email: v.Email, Phone: v.Phone})
	case http.MethodDelete:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		if err := h.visitors.Delete(r.Context(), id); err != nil {
			notFoundOr500(w, err, "visitor")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DirectoryHandler) getVisitors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if id := strings.TrimSpace(q.Get("id")); id != "" {
		v, err := h.visitors.GetByID(r.Context(), id)
		if err != nil {
			notFoundOr500(w, err, "visitor")
			return
		}
		writeJSON(w, http.StatusOK, visitorItem{ID: v.ID, Name: v.Name, Email: v.Email, Phone: v.Phone})
		return
	}

	limit := 100
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	list, err := h.visitors.List(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to list visitors", http.StatusInternalServerError)
		return
	}
	items := make([]visitorItem, 0, len(list))
	for _, v := range list {
		items = append(items, visitorItem{ID: v.ID, Name: v.Name, Email: v.Email, Phone: v.Phone})
	}
	writeJSON(w, http.StatusOK, map[string]any{"visitors": items})
}

func toStaffItem(s storage.Staff) staffItem {
	return staffItem{
		ID:            s.ID,
		InstitutionID: s.InstitutionID,
		Name:          s.Name,
		Email:         s.Email,
		Role:          s.Role,
	}
}

func notFoundOr500(w http.ResponseWriter, err error, entity string) {
	if storage.IsNotFound(err) {
		http.Error(w, entity+" not found", http.StatusNotFound)
		return
	}
	http.Error(w, "failed to load "+entity, http.StatusInternalServerError)
}
