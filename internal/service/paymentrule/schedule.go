// Package paymentrule 提供支付规则的定义、解析与展开服务
package paymentrule

import (
	"time"

	"github.com/dumeirei/smart-booking-backend/internal/common/errors"
	"github.com/dumeirei/smart-booking-backend/internal/common/metrics"
	"github.com/dumeirei/smart-booking-backend/internal/common/utils"
	"github.com/dumeirei/smart-booking-backend/internal/models"
)

// BookingTerms 展开支付计划所需的预订要素
type BookingTerms struct {
	TotalPrice  float64
	BookingDate time.Time
	CheckinDate time.Time
}

// ScheduleLine 展开后的应付款行
type ScheduleLine struct {
	Sequence int       `json:"sequence"`
	Label    string    `json:"label"`
	Amount   float64   `json:"amount"`
	DueDate  time.Time `json:"due_date"`
}

// Expand 将支付规则按预订要素展开为应付款行
// 纯函数：deposit 展开为定金与尾款两行，payment_schedule 按里程碑逐行展开，
// flexible 不产生任何行。到期日不做裁剪，已过去的日期原样返回。
func Expand(rule *models.PaymentRule, terms BookingTerms) ([]ScheduleLine, error) {
	metrics.GetMetrics().RecordScheduleExpand(rule.RuleType)

	switch rule.RuleType {
	case models.RuleTypeFlexible:
		return nil, nil
	case models.RuleTypeDeposit:
		return expandDeposit(rule, terms)
	case models.RuleTypeSchedule:
		return expandSchedule(rule, terms)
	}
	return nil, errors.ErrRuleTypeInvalid
}

func expandDeposit(rule *models.PaymentRule, terms BookingTerms) ([]ScheduleLine, error) {
	if rule.DepositType == nil || rule.DepositAmount == nil || rule.DepositDue == nil || rule.BalanceDue == nil {
		return nil, errors.ErrRuleValidation.WithMessage("押金规则配置不完整")
	}

	deposit, err := lineAmount(*rule.DepositType, *rule.DepositAmount, terms.TotalPrice)
	if err != nil {
		return nil, err
	}
	balance := utils.RoundMoney(terms.TotalPrice - deposit)

	depositDue, err := resolveDue(*rule.DepositDue, rule.DepositDueOffsetDays, rule.DepositDueDate, terms)
	if err != nil {
		return nil, err
	}
	balanceDue, err := resolveDue(*rule.BalanceDue, rule.BalanceDueOffsetDays, rule.BalanceDueDate, terms)
	if err != nil {
		return nil, err
	}

	return []ScheduleLine{
		{Sequence: 1, Label: "定金", Amount: deposit, DueDate: depositDue},
		{Sequence: 2, Label: "尾款", Amount: balance, DueDate: balanceDue},
	}, nil
}

func expandSchedule(rule *models.PaymentRule, terms BookingTerms) ([]ScheduleLine, error) {
	lines := make([]ScheduleLine, 0, len(rule.Milestones))
	for _, m := range rule.Milestones {
		amount, err := lineAmount(m.AmountType, m.Amount, terms.TotalPrice)
		if err != nil {
			return nil, err
		}
		due, err := resolveDue(m.Due, m.OffsetDays, m.DueDate, terms)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ScheduleLine{
			Sequence: m.Sequence,
			Label:    m.Name,
			Amount:   amount,
			DueDate:  due,
		})
	}
	return lines, nil
}

func lineAmount(amountType string, amount, totalPrice float64) (float64, error) {
	switch amountType {
	case models.AmountTypePercentage:
		return utils.RoundMoney(totalPrice * amount / 100), nil
	case models.AmountTypeFixedAmount:
		return utils.RoundMoney(amount), nil
	}
	return 0, errors.ErrRuleValidation.WithMessage("无效的金额类型")
}

func resolveDue(timing string, offsetDays *int, dueDate *time.Time, terms BookingTerms) (time.Time, error) {
	switch timing {
	case models.DueAtBooking:
		return utils.DateOnly(terms.BookingDate), nil
	case models.DueOnCheckin:
		return utils.DateOnly(terms.CheckinDate), nil
	case models.DueDaysBeforeCheckin:
		if offsetDays == nil {
			return time.Time{}, errors.ErrRuleValidation.WithMessage("缺少偏移天数")
		}
		return utils.AddDays(utils.DateOnly(terms.CheckinDate), -*offsetDays), nil
	case models.DueDaysAfterBooking:
		if offsetDays == nil {
			return time.Time{}, errors.ErrRuleValidation.WithMessage("缺少偏移天数")
		}
		return utils.AddDays(utils.DateOnly(terms.BookingDate), *offsetDays), nil
	case models.DueSpecificDate:
		if dueDate == nil {
			return time.Time{}, errors.ErrRuleValidation.WithMessage("缺少指定日期")
		}
		return utils.DateOnly(*dueDate), nil
	}
	return time.Time{}, errors.ErrRuleValidation.WithMessage("无效的到期时点")
}
