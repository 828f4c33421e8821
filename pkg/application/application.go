package application

import (
	"fmt"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clientdesk/clientdesk/pkg/eventbus"
)

// Controller registers its routes on the shared router.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

// Module wires a feature area (services, controllers) into the application.
type Module interface {
	Name() string
	Register(app Application) error
}

type Application interface {
	DB() *mongo.Database
	EventPublisher() eventbus.EventBus
	Logger() *logrus.Logger

	RegisterControllers(controllers ...Controller)
	RegisterServices(services ...interface{})
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)

	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	Service(service interface{}) interface{}
}

type ApplicationOptions struct {
	DB       *mongo.Database
	EventBus eventbus.EventBus
	Logger   *logrus.Logger
}

func New(opts *ApplicationOptions) Application {
	return &application{
		db:       opts.DB,
		eventBus: opts.EventBus,
		logger:   opts.Logger,
		services: map[reflect.Type]interface{}{},
	}
}

type application struct {
	db          *mongo.Database
	eventBus    eventbus.EventBus
	logger      *logrus.Logger
	controllers []Controller
	middleware  []mux.MiddlewareFunc
	services    map[reflect.Type]interface{}
}

func (a *application) DB() *mongo.Database {
	return a.db
}

func (a *application) EventPublisher() eventbus.EventBus {
	return a.eventBus
}

func (a *application) Logger() *logrus.Logger {
	return a.logger
}

func (a *application) RegisterControllers(controllers ...Controller) {
	a.controllers = append(a.controllers, controllers...)
}

func (a *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	a.middleware = append(a.middleware, middleware...)
}

func (a *application) RegisterServices(services ...interface{}) {
	for _, service := range services {
		a.services[reflect.TypeOf(service).Elem()] = service
	}
}

// Service returns the registered service matching the type of its zero-value
// argument, e.g. app.Service(services.ClientService{}).
func (a *application) Service(service interface{}) interface{} {
	svc, ok := a.services[reflect.TypeOf(service)]
	if !ok {
		panic(fmt.Sprintf("service %s not found", reflect.TypeOf(service).Name()))
	}
	return svc
}

func (a *application) Controllers() []Controller {
	return a.controllers
}

func (a *application) Middleware() []mux.MiddlewareFunc {
	return a.middleware
}

// Load registers each module in order, failing on the first error.
func Load(app Application, modules ...Module) error {
	for _, module := range modules {
		if err := module.Register(app); err != nil {
			return fmt.Errorf("module %s: %w", module.Name(), err)
		}
	}
	return nil
}
