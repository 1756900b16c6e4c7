package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/arranger"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/seating"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/utils"
)

// 这些错误说明请求中的参数有误，而不是服务器内部错误
var arrangerParameterErrors = []error{
	arranger.ErrEmptyPopulation,
	arranger.ErrPopulationSize,
	arranger.ErrInvalidGroupSize,
	arranger.ErrInvalidSelectionCount,
	arranger.ErrInvalidMaxGenerations,
	arranger.ErrInvalidMutationRate,
	arranger.ErrInvalidEliteCount,
	arranger.ErrUnknownSelector,
}

func isArrangerParameterError(err error) bool {
	for _, target := range arrangerParameterErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type generateArrangementRequest struct {
	GroupSize           *int32   `json:"groupSize" validate:"omitempty,min=1"`
	PopulationSize      *int32   `json:"populationSize" validate:"omitempty,min=1"`
	MaxGenerations      *int32   `json:"maxGenerations" validate:"omitempty,min=1"`
	SelectionCount      *int32   `json:"selectionCount" validate:"omitempty,min=1"`
	Selector            *string  `json:"selector" validate:"omitempty,selector"`
	TournamentSize      *int32   `json:"tournamentSize" validate:"omitempty,min=1"`
	MutationRate        *float64 `json:"mutationRate" validate:"omitempty,min=0,max=1"`
	EliteCount          *int32   `json:"eliteCount" validate:"omitempty,min=0"`
	ConvergenceDelta    *int64   `json:"convergenceDelta" validate:"omitempty,min=0"`
	ConvergencePatience *int32   `json:"convergencePatience" validate:"omitempty,min=0"`
	Seed                *int64   `json:"seed"`
}

// apply 用请求中给出的参数覆盖配置中的默认值
func (req *generateArrangementRequest) apply(opts *seating.Options) {
	if req.GroupSize != nil {
		opts.GroupSize = *req.GroupSize
	}
	if req.Selector != nil {
		opts.Selector = *req.Selector
	}
	if req.TournamentSize != nil {
		opts.TournamentSize = *req.TournamentSize
	}
	if req.SelectionCount != nil {
		opts.SelectionCount = *req.SelectionCount
	}

	p := &opts.Parameters
	if req.PopulationSize != nil {
		p.PopulationSize = *req.PopulationSize
	}
	if req.MaxGenerations != nil {
		p.MaxGenerations = *req.MaxGenerations
	}
	if req.MutationRate != nil {
		p.MutationRate = *req.MutationRate
	}
	if req.EliteCount != nil {
		p.EliteCount = *req.EliteCount
	}
	if req.ConvergenceDelta != nil {
		p.ConvergenceDelta = *req.ConvergenceDelta
	}
	if req.ConvergencePatience != nil {
		p.ConvergencePatience = *req.ConvergencePatience
	}
	if req.Seed != nil {
		p.Seed = *req.Seed
	}
}

func (h *Handler) GenerateArrangement(w http.ResponseWriter, r *http.Request) {
	table := r.Context().Value(PreferenceTableCtx).(*domain.PreferenceTable)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	// 请求体为空时全部使用默认参数
	var req generateArrangementRequest
	if err := h.readJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	opts := seating.OptionsFromConfig(&h.config.Arranger, &h.config.Preference)
	req.apply(&opts)

	if err := utils.ValidateArrangerOptions(&opts, len(table.Members)); err != nil {
		h.badRequest(w, r, err)
		return
	}

	lock := newArrangementLock(table.ID, myInfo.Username)
	lockCtx, cancel := h.redisContext()
	defer cancel()

	ok, err := lock.acquire(lockCtx, h.redisClient, time.Duration(h.config.Arranger.LockExpiration)*time.Second)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !ok {
		h.errorResponse(w, r, "该偏好表正在排座中，请稍后再试")
		return
	}
	defer func() {
		ctx, cancel := h.redisContext()
		defer cancel()
		released, err := lock.release(ctx, h.redisClient)
		switch {
		case err != nil:
			slog.Error("释放排座锁失败", "key", lock.key, "error", err)
		case !released:
			slog.Warn("排座锁在排座结束前已过期", "key", lock.key)
		}
	}()

	// 客户端断开连接或者超过写超时时间后停止排座
	runCtx, cancelRun := context.WithTimeout(r.Context(), time.Duration(h.config.Server.WriteTimeout)*time.Second)
	defer cancelRun()

	start := time.Now()
	arrangement, err := seating.Arrange(runCtx, table, opts)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			h.errorResponse(w, r, "排座超时或已被取消")
		case isArrangerParameterError(err):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	arrangement.CreatedBy = myInfo.ID
	slog.Info("自动排座完成", "preferenceTableID", table.ID, "score", arrangement.Score, "generations", arrangement.Generations, "duration", time.Since(start))

	if err := h.repository.InsertArrangement(arrangement); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 结果已经保存，邮件发送失败不影响响应
	if err := h.publishMail(domain.MailMessage{
		Type: domain.MailTypeArrangementFinished,
		To:   myInfo.Email,
		Data: domain.ArrangementFinishedMailData{
			FullName:            myInfo.FullName,
			PreferenceTableName: table.Name,
			Score:               arrangement.Score,
			Generations:         arrangement.Generations,
			Groups:              arrangement.Groups,
		},
	}); err != nil {
		slog.Error("发送排座完成邮件失败", "to", myInfo.Email, "error", err)
	}

	h.successResponse(w, r, "自动排座成功", arrangement)
}

type arrangementGroupsRequest struct {
	GroupSize int32 `json:"groupSize" validate:"required,min=1"`
	Groups    []struct {
		Members []string `json:"members" validate:"required,min=1,dive,required"`
	} `json:"groups" validate:"required,min=1,dive"`
}

func (req *arrangementGroupsRequest) groups() []domain.ArrangementGroup {
	groups := make([]domain.ArrangementGroup, 0, len(req.Groups))
	for _, g := range req.Groups {
		groups = append(groups, domain.ArrangementGroup{Members: g.Members})
	}
	return groups
}

// scoreArrangement 校验并计算请求中手动给出的分组
func (h *Handler) scoreArrangement(w http.ResponseWriter, r *http.Request) (*domain.Arrangement, bool) {
	table := r.Context().Value(PreferenceTableCtx).(*domain.PreferenceTable)

	var req arrangementGroupsRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}

	arrangement, err := seating.Score(table, h.config.Preference.WeightPolicy(), req.groups(), req.GroupSize)
	if err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}

	return arrangement, true
}

func (h *Handler) SubmitArrangement(w http.ResponseWriter, r *http.Request) {
	arrangement, ok := h.scoreArrangement(w, r)
	if !ok {
		return
	}
	arrangement.CreatedBy = r.Context().Value(MyInfoCtx).(*domain.User).ID

	if err := h.repository.InsertArrangement(arrangement); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "提交排座结果成功", arrangement)
}

func (h *Handler) EvaluateArrangement(w http.ResponseWriter, r *http.Request) {
	arrangement, ok := h.scoreArrangement(w, r)
	if !ok {
		return
	}

	h.successResponse(w, r, "计算得分成功", arrangement)
}

func (h *Handler) GetArrangements(w http.ResponseWriter, r *http.Request) {
	table := r.Context().Value(PreferenceTableCtx).(*domain.PreferenceTable)

	arrangements, err := h.repository.GetArrangementsByPreferenceTableID(table.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排座结果成功", arrangements)
}

func (h *Handler) GetBestArrangement(w http.ResponseWriter, r *http.Request) {
	table := r.Context().Value(PreferenceTableCtx).(*domain.PreferenceTable)

	arrangement, err := h.repository.GetBestArrangementByPreferenceTableID(table.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.successResponse(w, r, "暂无排座结果", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取最优排座结果成功", arrangement)
}

func (h *Handler) GetLatestArrangement(w http.ResponseWriter, r *http.Request) {
	table := r.Context().Value(PreferenceTableCtx).(*domain.PreferenceTable)

	arrangement, err := h.repository.GetLatestArrangementByPreferenceTableID(table.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.successResponse(w, r, "暂无排座结果", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取最新排座结果成功", arrangement)
}

func (h *Handler) GetArrangement(w http.ResponseWriter, r *http.Request) {
	arrangement := r.Context().Value(ArrangementCtx).(*domain.Arrangement)

	h.successResponse(w, r, "获取排座结果成功", arrangement)
}

func (h *Handler) DeleteArrangement(w http.ResponseWriter, r *http.Request) {
	arrangement := r.Context().Value(ArrangementCtx).(*domain.Arrangement)

	if err := h.repository.DeleteArrangement(arrangement.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除排座结果成功", nil)
}
