package client

import (
	"github.com/smallbiznis/invoicegen/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(service.NewService),
)
