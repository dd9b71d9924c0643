package coupon

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// UnspecifiedGoods is shown for specific-good templates without a goods code.
const UnspecifiedGoods = "unspecified"

// Option is a select option rendered by the console forms.
type Option struct {
	Value string
	Label string
}

var (
	SourceOptions = []Option{
		{Value: "0", Label: "Shop coupon"},
		{Value: "1", Label: "Platform coupon"},
	}
	TargetOptions = []Option{
		{Value: "0", Label: "Specific good"},
		{Value: "1", Label: "Store-wide"},
	}
	TypeOptions = []Option{
		{Value: "0", Label: "Flat discount"},
		{Value: "1", Label: "Threshold discount"},
		{Value: "2", Label: "Percentage discount"},
	}
)

func (s Source) Label() string {
	if s == SourceShop {
		return "Shop coupon"
	}
	return "Platform coupon"
}

func (d DiscountType) Label() string {
	switch d {
	case DiscountTypeFlat:
		return "Flat discount"
	case DiscountTypeThreshold:
		return "Threshold discount"
	case DiscountTypePercentage:
		return "Percentage discount"
	default:
		return "Unknown type"
	}
}

func (s TemplateStatus) Label() string {
	if s == TemplateStatusActive {
		return "Active"
	}
	return "Ended"
}

// TargetLabel renders the target column. Store-wide never shows a goods
// code, whatever the goods field holds.
func (t *Template) TargetLabel() string {
	if t.Target != TargetSpecificGood {
		return "Store-wide"
	}
	goods := t.GoodsCode()
	if goods == "" {
		goods = UnspecifiedGoods
	}
	return fmt.Sprintf("Specific good (%s)", goods)
}

// ValidityLabel renders the validity window at day precision.
func (t *Template) ValidityLabel() string {
	return fmt.Sprintf("%s to %s", formatDay(t.ValidStartTime), formatDay(t.ValidEndTime))
}

func formatDay(ts Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01-02")
}

// GoodsFieldVisible reports whether the goods code input applies for the
// given target form value.
func GoodsFieldVisible(target string) bool {
	v, err := strconv.Atoi(target)
	return err == nil && Target(v) == TargetSpecificGood
}

// PrettyRule indents well-formed JSON rule text and returns anything else
// unchanged.
func PrettyRule(rule string) string {
	var v interface{}
	if err := json.Unmarshal([]byte(rule), &v); err != nil {
		return rule
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return rule
	}
	return string(out)
}
