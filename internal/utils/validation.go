package utils

import (
	"errors"
	"fmt"
	"slices"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/arranger"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/seating"
)

var selectorNames = []string{
	arranger.SelectorStochastic,
	arranger.SelectorRoulette,
	arranger.SelectorTournament,
	arranger.SelectorMaximize,
}

// RegisterArrangerValidations 注册 selector 标签及其中文翻译
func RegisterArrangerValidations(validate *validator.Validate, trans ut.Translator) error {
	if err := validate.RegisterValidation("selector", func(fl validator.FieldLevel) bool {
		return slices.Contains(selectorNames, fl.Field().String())
	}); err != nil {
		return err
	}

	return validate.RegisterTranslation("selector", trans,
		func(ut ut.Translator) error {
			return ut.Add("selector", "{0}必须是有效的选择算法", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("selector", fe.Field())
			return t
		},
	)
}

// ValidateArrangerOptions 检查无法通过结构体标签表达的参数约束
func ValidateArrangerOptions(opts *seating.Options, memberCount int) error {
	if memberCount == 0 {
		return errors.New("偏好表中没有成员")
	}

	if err := ValidateGroupSize(opts.GroupSize, memberCount); err != nil {
		return err
	}

	if opts.SelectionCount > opts.Parameters.PopulationSize {
		return errors.New("选择数量不能大于种群大小")
	}

	if opts.Parameters.EliteCount > opts.Parameters.PopulationSize {
		return errors.New("精英数量不能大于种群大小")
	}

	return nil
}

// ValidateGroupSize 分组大小不能超过总人数
func ValidateGroupSize(groupSize int32, memberCount int) error {
	if groupSize < 1 {
		return errors.New("分组大小必须大于 0")
	}

	if int(groupSize) > memberCount {
		return fmt.Errorf("分组大小不能超过总人数 %d", memberCount)
	}

	return nil
}
