package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
)

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("已处理请求",
			"requestID", middleware.GetReqID(r.Context()),
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"ip", r.RemoteAddr,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				fmt.Print(string(debug.Stack())) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(tokenCookieName)
		if err != nil {
			switch {
			case errors.Is(err, http.ErrNoCookie):
				h.errorResponse(w, r, "用户未登录")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		claims, err := h.parseToken(cookie.Value)
		if err != nil {
			h.errorResponse(w, r, "无效的令牌")
			return
		}

		ctx := context.WithValue(r.Context(), RoleCtxKey, claims.Role)
		ctx = context.WithValue(ctx, SubCtxKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// lookup 把 URL 参数 param 解析为 ID 后交给 load 查询，并把结果放入 context
// 查询不到时返回 notFound
func lookup[T any](h *Handler, param string, key ContextKey, invalid string, notFound string, load func(int64) (T, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
			if err != nil || id <= 0 {
				h.errorResponse(w, r, invalid)
				return
			}

			v, err := load(id)
			if err != nil {
				switch {
				case errors.Is(err, sql.ErrNoRows):
					h.errorResponse(w, r, notFound)
				default:
					h.internalServerError(w, r, err)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), key, v)))
		})
	}
}

func (h *Handler) myInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, err := strconv.ParseInt(r.Context().Value(SubCtxKey).(string), 10, 64)
		if err != nil {
			h.errorResponse(w, r, "无效的令牌")
			return
		}

		myInfo, err := h.repository.GetUserByID(sub)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "个人信息不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), MyInfoCtx, myInfo)))
	})
}

func (h *Handler) RequiredRole(roles []domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := domain.Role(r.Context().Value(RoleCtxKey).(string))
			if !slices.Contains(roles, role) {
				h.errorResponse(w, r, "权限不足")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) userInfo(next http.Handler) http.Handler {
	return lookup(h, "id", UserInfoCtx, "用户ID无效", "用户不存在", h.repository.GetUserByID)(next)
}

func (h *Handler) preventOperateInitialAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(UserInfoCtx).(*domain.User)
		if user.Username == h.config.InitialAdmin.Username {
			h.errorResponse(w, r, "禁止操作初始管理员")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) preventInactiveUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
		if !myInfo.IsActive {
			h.errorResponse(w, r, "账号已停用")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// preferenceTable 需要在 myInfo 之后使用
func (h *Handler) preferenceTable(next http.Handler) http.Handler {
	ownerOnly := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
		table := r.Context().Value(PreferenceTableCtx).(*domain.PreferenceTable)

		// 其他组织者的偏好表按不存在处理
		if !canAccessPreferenceTable(myInfo, table) {
			h.errorResponse(w, r, "偏好表不存在")
			return
		}
		next.ServeHTTP(w, r)
	})

	return lookup(h, "id", PreferenceTableCtx, "偏好表ID无效", "偏好表不存在", h.repository.GetPreferenceTable)(ownerOnly)
}

// arrangement 需要在 preferenceTable 之后使用
func (h *Handler) arrangement(next http.Handler) http.Handler {
	sameTable := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		table := r.Context().Value(PreferenceTableCtx).(*domain.PreferenceTable)
		arrangement := r.Context().Value(ArrangementCtx).(*domain.Arrangement)

		// 不允许通过其他偏好表访问排座结果
		if arrangement.PreferenceTableID != table.ID {
			h.errorResponse(w, r, "排座结果不存在")
			return
		}
		next.ServeHTTP(w, r)
	})

	return lookup(h, "arrangementID", ArrangementCtx, "排座结果ID无效", "排座结果不存在", h.repository.GetArrangementByID)(sameTable)
}

// canAccessPreferenceTable: 管理员可以访问所有偏好表，组织者只能访问自己创建的
func canAccessPreferenceTable(user *domain.User, table *domain.PreferenceTable) bool {
	return user.Role == domain.RoleAdmin || table.CreatedBy == user.ID
}

// preferenceTableCreatorFilter 返回列出偏好表时使用的创建者过滤条件，0 表示不过滤
func preferenceTableCreatorFilter(user *domain.User) int64 {
	if user.Role == domain.RoleAdmin {
		return 0
	}
	return user.ID
}
