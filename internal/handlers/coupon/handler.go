// internal/handlers/coupon/handler.go
package coupon

import (
	"time"

	"onecoupon-console/internal/handlers/shell"
	"onecoupon-console/internal/pkg/session"
	couponsvc "onecoupon-console/internal/service/coupon"
	tasksvc "onecoupon-console/internal/service/task"

	"go.uber.org/zap"
)

// submitLockTTL bounds how long a crashed submission can block the next one.
const submitLockTTL = 30 * time.Second

type CouponHandler struct {
	coupons  *couponsvc.CouponService
	tasks    *tasksvc.TaskService
	shell    *shell.Shell
	sessions *session.Manager
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

func NewCouponHandler(
	coupons *couponsvc.CouponService,
	tasks *tasksvc.TaskService,
	sh *shell.Shell,
	sessions *session.Manager,
	location *time.Location,
	logger *zap.Logger,
) *CouponHandler {
	if location == nil {
		location = time.Local
	}
	return &CouponHandler{
		coupons:  coupons,
		tasks:    tasks,
		shell:    sh,
		sessions: sessions,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}
