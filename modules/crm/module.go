package crm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/clientdesk/clientdesk/modules/crm/domain/events"
	"github.com/clientdesk/clientdesk/modules/crm/importer"
	"github.com/clientdesk/clientdesk/modules/crm/infrastructure/persistence"
	"github.com/clientdesk/clientdesk/modules/crm/infrastructure/progress"
	"github.com/clientdesk/clientdesk/modules/crm/presentation/controllers"
	"github.com/clientdesk/clientdesk/modules/crm/services"
	"github.com/clientdesk/clientdesk/pkg/application"
	"github.com/clientdesk/clientdesk/pkg/configuration"
	"github.com/clientdesk/clientdesk/pkg/metrics"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()

	repo := persistence.NewClientRepository(app.DB())

	var reporter importer.ProgressReporter = importer.NopProgressReporter{}
	if conf.Redis.Enabled {
		opts, err := redis.ParseURL(conf.Redis.URL)
		if err != nil {
			// Bare host:port is accepted alongside full redis:// URLs.
			opts = &redis.Options{Addr: conf.Redis.URL}
		}
		reporter = progress.NewRedisReporter(redis.NewClient(opts), conf.Redis.ProgressTTL)
	}

	app.RegisterServices(
		services.NewClientService(repo, app.EventPublisher()),
		services.NewImportService(repo, app.EventPublisher(), reporter, conf.Import),
	)

	app.RegisterControllers(
		controllers.NewClientAPIController(app),
		controllers.NewImportAPIController(app),
	)

	if conf.Prometheus.Enabled {
		collector := metrics.NewImportCollector(prometheus.DefaultRegisterer)
		app.EventPublisher().Subscribe(func(event *events.ImportCompletedEvent) {
			observeImport(collector, event)
		})
	}

	return nil
}

func (m *Module) Name() string {
	return "crm"
}

func observeImport(collector *metrics.ImportCollector, event *events.ImportCompletedEvent) {
	s := event.Summary
	if s == nil {
		return
	}
	collector.RowsProcessed.Add(float64(s.TotalProcessed))
	collector.Created.Add(float64(s.Created))
	collector.Updated.Add(float64(s.Updated))
	collector.Failed.Add(float64(s.Failed))
	collector.Skipped.Add(float64(s.Skipped))
	collector.PaymentAttempted.Add(float64(s.PaymentAttempted))
	collector.PaymentAdded.Add(float64(s.PaymentAdded))
	collector.Duration.Observe(event.Duration.Seconds())
}
