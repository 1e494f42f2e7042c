package invoice

import (
	"github.com/smallbiznis/invoicegen/internal/events"
	"github.com/smallbiznis/invoicegen/internal/invoice/render"
	"github.com/smallbiznis/invoicegen/internal/invoice/repository"
	"github.com/smallbiznis/invoicegen/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(events.NewOutbox),
	fx.Provide(repository.Provide),
	fx.Provide(render.NewRenderer),
	fx.Provide(service.NewService),
)
