package modules

import (
	"github.com/clientdesk/clientdesk/modules/crm"
	"github.com/clientdesk/clientdesk/pkg/application"
)

var BuiltInModules = []application.Module{
	crm.NewModule(),
}

func Load(app application.Application, modules ...application.Module) error {
	return application.Load(app, modules...)
}
