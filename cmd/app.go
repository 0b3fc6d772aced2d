package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	clover "github.com/ostafen/clover/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"gitlab.com/nunet/yarn-data/internal/config"
	"gitlab.com/nunet/yarn-data/internal/db"
	"gitlab.com/nunet/yarn-data/internal/repositories"
	repositories_clover "gitlab.com/nunet/yarn-data/internal/repositories/clover"
	repositories_gorm "gitlab.com/nunet/yarn-data/internal/repositories/gorm"
	"gitlab.com/nunet/yarn-data/models"
)

// app holds the stores a command works against.
type app struct {
	db       *gorm.DB
	audit    *clover.DB
	registry *prometheus.Registry
	metrics  *repositories.RepositoryMetrics
	ttl      time.Duration
}

// opener builds the app a command runs against; tests swap it for temporary stores.
type opener func() (*app, error)

func openFromConfig() (*app, error) {
	cfg := config.GetConfig()
	return openStores(cfg.Database, cfg.General.Debug, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
}

func openStores(cfg config.Database, debug bool, ttl time.Duration) (*app, error) {
	database, err := db.Open(cfg, debug)
	if err != nil {
		return nil, err
	}
	audit, err := db.OpenAudit(cfg.AuditPath)
	if err != nil {
		return nil, multierr.Append(err, db.Close(database))
	}

	registry := prometheus.NewRegistry()
	metrics, err := repositories.NewRepositoryMetrics(registry)
	if err != nil {
		return nil, multierr.Combine(err, db.Close(database), audit.Close())
	}
	return &app{db: database, audit: audit, registry: registry, metrics: metrics, ttl: ttl}, nil
}

// Close releases both stores and reports every failure.
func (a *app) Close() error {
	return multierr.Combine(db.Close(a.db), a.audit.Close())
}

// orderStore is the tenant-bound view of orders a command works with.
type orderStore struct {
	*repositories.FullTextRepository[models.Order, uint]
	bulk *repositories.MultiTenantBulkOperations[models.Order, uint]
}

// orders stacks the order decorators from the backend outwards: metrics, cache,
// tenant isolation and full-text search. Search runs through the tenant filter.
func (a *app) orders(owner repositories.Owner) (*orderStore, error) {
	base, err := repositories_gorm.NewGenericRepository[models.Order, uint](a.db)
	if err != nil {
		return nil, err
	}
	instrumented := repositories.NewInstrumentedRepository[models.Order, uint](base, a.metrics, "order")
	cached := repositories.NewCachedRepository[models.Order, uint](instrumented, a.ttl, models.Order.Key)
	scoped, err := repositories.NewMultiTenantRepository[models.Order, uint](cached, owner)
	if err != nil {
		return nil, err
	}
	search := repositories.NewLikeFullTextProvider[models.Order, uint](scoped, "Number", "Customer", "Notes")

	bulk, err := repositories.NewMultiTenantBulkOperations[models.Order, uint](
		repositories_gorm.NewBulkOperations(base), owner)
	if err != nil {
		return nil, err
	}
	return &orderStore{
		FullTextRepository: repositories.NewFullTextRepository[models.Order, uint](scoped, search),
		bulk:               bulk,
	}, nil
}

// products is shared catalogue data; the tenant adapter passes it through.
func (a *app) products(owner repositories.Owner) (repositories.Repository[models.Product, uint], error) {
	base, err := repositories_gorm.NewGenericRepository[models.Product, uint](a.db)
	if err != nil {
		return nil, err
	}
	instrumented := repositories.NewInstrumentedRepository[models.Product, uint](base, a.metrics, "product")
	cached := repositories.NewCachedRepository[models.Product, uint](instrumented, a.ttl, models.Product.Key)
	scoped, err := repositories.NewMultiTenantRepository[models.Product, uint](cached, owner)
	if err != nil {
		return nil, err
	}
	return scoped, nil
}

func (a *app) auditTrail(owner repositories.Owner) (repositories.Repository[models.AuditEntry, string], error) {
	base, err := repositories_clover.NewGenericRepository[models.AuditEntry](a.audit)
	if err != nil {
		return nil, err
	}
	instrumented := repositories.NewInstrumentedRepository[models.AuditEntry, string](base, a.metrics, "audit")
	scoped, err := repositories.NewMultiTenantRepository[models.AuditEntry, string](instrumented, owner)
	if err != nil {
		return nil, err
	}
	return scoped, nil
}

// record appends an audit entry. Failing to audit does not undo the change,
// it is reported to the caller instead.
func (a *app) record(ctx context.Context, owner repositories.Owner, action, subject, detail string) error {
	trail, err := a.auditTrail(owner)
	if err != nil {
		return err
	}
	_, err = trail.Add(ctx, models.AuditEntry{
		TenantID: owner.TenantID,
		OwnerID:  owner.OwnerID,
		Action:   action,
		Subject:  subject,
		Detail:   detail,
	})
	if err != nil {
		return fmt.Errorf("unable to record %s: %w", action, err)
	}
	return nil
}

// writeMetrics prints the operation counters gathered during the command.
func (a *app) writeMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}

	table := setupTable(w, []string{"Entity", "Operation", "Outcome", "Count"})
	for _, family := range families {
		if !strings.HasSuffix(family.GetName(), "operations_total") {
			continue
		}
		rows := make([][]string, 0, len(family.GetMetric()))
		for _, metric := range family.GetMetric() {
			labels := make(map[string]string)
			for _, label := range metric.GetLabel() {
				labels[label.GetName()] = label.GetValue()
			}
			rows = append(rows, []string{
				labels["entity"],
				labels["operation"],
				labels["outcome"],
				fmt.Sprintf("%.0f", metric.GetCounter().GetValue()),
			})
		}
		sort.Slice(rows, func(i, j int) bool {
			return strings.Join(rows[i], " ") < strings.Join(rows[j], " ")
		})
		table.AppendBulk(rows)
	}
	table.Render()
	return nil
}
