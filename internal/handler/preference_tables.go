package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/preference"
)

// 上传的 CSV 文件大小上限
const maxImportSize = 4 << 20

// GetAllPreferenceTables 组织者只能看到自己创建的偏好表
func (h *Handler) GetAllPreferenceTables(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	tables, err := h.repository.GetAllPreferenceTables(preferenceTableCreatorFilter(myInfo))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有偏好表成功", tables)
}

type preferenceTableMemberRequest struct {
	Name        string   `json:"name" validate:"required"`
	Preferences []string `json:"preferences" validate:"max=16"`
}

func (h *Handler) CreatePreferenceTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string                         `json:"name" validate:"required"`
		Description string                         `json:"description"`
		Members     []preferenceTableMemberRequest `json:"members" validate:"required,min=1,dive"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	table := &domain.PreferenceTable{
		Name:        req.Name,
		Description: req.Description,
		Members:     toPreferenceTableMembers(req.Members),
	}

	if err := preference.ValidateTable(table); err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.createPreferenceTable(w, r, table)
}

// ImportPreferenceTable 通过上传 CSV 文件创建偏好表
// 表单字段 file 为文件，name 为偏好表名称
func (h *Handler) ImportPreferenceTable(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		h.badRequest(w, r, errors.New("无法解析上传的表单"))
		return
	}

	name := r.FormValue("name")
	if name == "" {
		h.badRequest(w, r, errors.New("偏好表名称不能为空"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.badRequest(w, r, errors.New("没有找到上传的文件"))
		return
	}
	defer file.Close()

	table, err := preference.ReadCSV(file, name)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	table.Description = r.FormValue("description")

	h.createPreferenceTable(w, r, table)
}

func (h *Handler) createPreferenceTable(w http.ResponseWriter, r *http.Request, table *domain.PreferenceTable) {
	table.CreatedBy = r.Context().Value(MyInfoCtx).(*domain.User).ID
	if err := h.repository.CreatePreferenceTable(table); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "preference_tables_name_key":
				h.errorResponse(w, r, "偏好表名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建偏好表成功", table)
}

func (h *Handler) GetPreferenceTable(w http.ResponseWriter, r *http.Request) {
	table := r.Context().Value(PreferenceTableCtx).(*domain.PreferenceTable)

	h.successResponse(w, r, "获取偏好表成功", table)
}

func (h *Handler) UpdatePreferenceTable(w http.ResponseWriter, r *http.Request) {
	table := r.Context().Value(PreferenceTableCtx).(*domain.PreferenceTable)

	var req struct {
		Name        *string                        `json:"name" validate:"omitempty,min=1"`
		Description *string                        `json:"description"`
		Members     []preferenceTableMemberRequest `json:"members" validate:"omitempty,min=1,dive"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Name != nil {
		table.Name = *req.Name
	}
	if req.Description != nil {
		table.Description = *req.Description
	}
	if req.Members != nil {
		table.Members = toPreferenceTableMembers(req.Members)
		if err := preference.ValidateTable(table); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}

	if err := h.repository.UpdatePreferenceTable(table); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "preference_tables_name_key":
				h.errorResponse(w, r, "偏好表名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新偏好表成功", table)
}

func (h *Handler) DeletePreferenceTable(w http.ResponseWriter, r *http.Request) {
	table := r.Context().Value(PreferenceTableCtx).(*domain.PreferenceTable)

	if err := h.repository.DeletePreferenceTable(table.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除偏好表成功", nil)
}

func toPreferenceTableMembers(reqMembers []preferenceTableMemberRequest) []domain.PreferenceTableMember {
	members := make([]domain.PreferenceTableMember, 0, len(reqMembers))
	for _, m := range reqMembers {
		preferences := m.Preferences
		if preferences == nil {
			preferences = []string{}
		}
		members = append(members, domain.PreferenceTableMember{
			Name:        m.Name,
			Preferences: preferences,
		})
	}
	return members
}
