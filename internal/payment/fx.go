package payment

import (
	"github.com/smallbiznis/invoicegen/internal/payment/recorder"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.recorder",
	fx.Provide(recorder.New),
)
