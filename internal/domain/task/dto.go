package task

import "onecoupon-console/internal/domain/coupon"

// DistributeForm is the distribute modal as typed by the operator. The file
// part is read separately from the multipart request.
type DistributeForm struct {
	TemplateID  string   `form:"couponTemplateId" binding:"required"`
	TaskName    string   `form:"taskName" binding:"required,max=128"`
	NotifyTypes []string `form:"notifyType" binding:"required,min=1,dive,oneof=0 1 2 3"`
	SendType    string   `form:"sendType" binding:"required,oneof=0 1"`
	SendTime    string   `form:"sendTime"`
	ReturnTo    string   `form:"returnTo"`
}

// DefaultDistributeForm opens the modal for a template.
func DefaultDistributeForm(id coupon.TemplateID) DistributeForm {
	return DistributeForm{
		TemplateID: id.String(),
		SendType:   "0",
	}
}

// Notifies reports whether a channel is ticked, for re-rendering.
func (f DistributeForm) Notifies(code string) bool {
	for _, n := range f.NotifyTypes {
		if n == code {
			return true
		}
	}
	return false
}

// SendTimeVisible mirrors GoodsFieldVisible for the send time input.
func (f DistributeForm) SendTimeVisible() bool {
	return f.SendType == "1"
}

// TemplateFileForm is the row count prompt.
type TemplateFileForm struct {
	RowNum string `form:"rowNum"`
}
