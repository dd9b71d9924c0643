package task

import (
	"testing"

	"onecoupon-console/internal/domain/coupon"

	"github.com/stretchr/testify/assert"
)

func TestCreateTaskRequest_NotifyTypeParam(t *testing.T) {
	testCases := []struct {
		name    string
		notifys []NotifyType
		want    string
	}{
		{name: "single", notifys: []NotifyType{NotifyEmail}, want: "2"},
		{name: "sorted", notifys: []NotifyType{NotifySMS, NotifyInApp}, want: "0,3"},
		{name: "deduplicated", notifys: []NotifyType{NotifyPopup, NotifyPopup, NotifyInApp}, want: "0,1"},
		{name: "none", notifys: nil, want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := &CreateTaskRequest{NotifyTypes: tc.notifys}
			assert.Equal(t, tc.want, r.NotifyTypeParam())
		})
	}
}

func TestDistributeForm(t *testing.T) {
	f := DefaultDistributeForm(coupon.TemplateID("77"))
	assert.Equal(t, "77", f.TemplateID)
	assert.False(t, f.SendTimeVisible())
	assert.False(t, f.Notifies("0"))

	f.SendType = "1"
	f.NotifyTypes = []string{"0", "3"}
	assert.True(t, f.SendTimeVisible())
	assert.True(t, f.Notifies("3"))
	assert.False(t, f.Notifies("2"))
}
