package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// userConstraintMessages: 违反约束时返回给客户端的提示
var userConstraintMessages = map[string]string{
	"users_username_key":                "用户名已存在",
	"users_email_key":                   "邮箱已存在",
	"preference_tables_created_by_fkey": "该用户仍有偏好表，无法删除",
	"arrangements_created_by_fkey":      "该用户仍有排座结果，无法删除",
}

// userConstraintMessage 返回 err 对应的提示，不是已知的约束错误时返回 false
func userConstraintMessage(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	msg, ok := userConstraintMessages[pgErr.ConstraintName]
	return msg, ok
}

func (h *Handler) writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	if msg, ok := userConstraintMessage(err); ok {
		h.errorResponse(w, r, msg)
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		h.errorResponse(w, r, "用户信息已被修改，请重试")
		return
	}
	h.internalServerError(w, r, err)
}

func (h *Handler) GetAllUserInfo(w http.ResponseWriter, r *http.Request) {
	users, err := h.repository.GetAllUsers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取用户列表成功", users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required,oneof=组织者 管理员"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 初始密码随机生成，通过邮件告知用户
	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         domain.Role(req.Role),
	}
	if err := h.repository.CreateUser(user); err != nil {
		h.writeUserError(w, r, err)
		return
	}

	if err := h.publishMail(domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   user.Email,
		Data: domain.CreateUserMailData{
			FullName: user.FullName,
			Username: user.Username,
			Password: password,
		},
	}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "用户创建成功", user)
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取用户信息成功", user)
}

type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=组织者 管理员"`
	IsActive *bool   `json:"isActive"`
}

func (req *updateUserRequest) apply(user *domain.User) {
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = domain.Role(*req.Role)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
}

// UpdateUser 姓名在创建后不可修改
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	var req updateUserRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	req.apply(user)
	if err := h.repository.UpdateUser(user); err != nil {
		h.writeUserError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新用户信息成功", user)
}

// DeleteUser 只能删除名下没有偏好表和排座结果的用户，否则应先停用
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if err := h.repository.DeleteUser(user.ID); err != nil {
		h.writeUserError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除用户成功", nil)
}

func (h *Handler) UpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	var req struct {
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.setPassword(user, req.Password); err != nil {
		h.writeSetPasswordError(w, r, err)
		return
	}

	h.successResponse(w, r, "修改密码成功", nil)
}
