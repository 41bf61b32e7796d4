package main

import (
	"context"
	"fmt"
	"time"

	appcatalog "github.com/drymix/erp/internal/application/catalog"
	appconstruction "github.com/drymix/erp/internal/application/construction"
	appcredit "github.com/drymix/erp/internal/application/credit"
	appdocument "github.com/drymix/erp/internal/application/document"
	appfinance "github.com/drymix/erp/internal/application/finance"
	apphr "github.com/drymix/erp/internal/application/hr"
	appinventory "github.com/drymix/erp/internal/application/inventory"
	apporg "github.com/drymix/erp/internal/application/organization"
	apppartner "github.com/drymix/erp/internal/application/partner"
	appplant "github.com/drymix/erp/internal/application/plant"
	appprinting "github.com/drymix/erp/internal/application/printing"
	appproduction "github.com/drymix/erp/internal/application/production"
	appquality "github.com/drymix/erp/internal/application/quality"
	apptrade "github.com/drymix/erp/internal/application/trade"
	"github.com/drymix/erp/internal/domain/credit"
	"github.com/drymix/erp/internal/domain/plant"
	"github.com/drymix/erp/internal/domain/printing"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/cache"
	"github.com/drymix/erp/internal/infrastructure/config"
	"github.com/drymix/erp/internal/infrastructure/event"
	"github.com/drymix/erp/internal/infrastructure/notification"
	"github.com/drymix/erp/internal/infrastructure/persistence"
	infraprint "github.com/drymix/erp/internal/infrastructure/printing"
	"github.com/drymix/erp/internal/infrastructure/scheduler"
	"github.com/drymix/erp/internal/infrastructure/storage"
	"github.com/drymix/erp/internal/infrastructure/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	toggleCacheTTL   = 5 * time.Minute
	latestReadingTTL = 24 * time.Hour
)

// objectStore is what the document and printing services need from
// object storage
type objectStore interface {
	appdocument.ObjectStorage
	appprinting.Archive
}

// app holds the wired application services
type app struct {
	org          *apporg.Service
	catalog      *appcatalog.Service
	partner      *apppartner.Service
	inventory    *appinventory.Service
	trade        *apptrade.Service
	production   *appproduction.Service
	quality      *appquality.Service
	finance      *appfinance.Service
	credit       *appcredit.Service
	hr           *apphr.Service
	construction *appconstruction.Service
	document     *appdocument.Service
	plant        *appplant.Service
	printing     *appprinting.Service

	scheduler *scheduler.Scheduler
	closers   []closer
	log       *zap.Logger
}

type closer struct {
	name  string
	close func() error
}

// Close releases the resources newApp opened, newest first
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.log.Warn("Failed to close resource", zap.String("resource", c.name), zap.Error(err))
		}
	}
}

func newApp(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, metrics *telemetry.Metrics, log *zap.Logger) (*app, error) {
	a := &app{log: log}
	tx := persistence.NewGormTxManager(db)
	numbers := persistence.NewSequenceGenerator(db)
	bus := event.NewBus()

	products := persistence.NewGormProductRepository(db)
	customers := persistence.NewGormCustomerRepository(db)
	suppliers := persistence.NewGormSupplierRepository(db)
	units := persistence.NewGormUnitRepository(db)
	receipts := persistence.NewGormGoodsReceiptRepository(db)
	batches := persistence.NewGormBatchRepository(db)

	var toggles apporg.ToggleCache = cache.NewMemoryToggleCache(toggleCacheTTL)
	if rdb != nil {
		toggles = cache.NewRedisToggleCache(rdb, toggleCacheTTL)
	}
	a.org = apporg.NewService(
		persistence.NewGormOrganizationRepository(db),
		persistence.NewGormSettingRepository(db),
		persistence.NewGormToggleRepository(db),
		persistence.NewGormThemeRepository(db),
		toggles,
	)
	a.catalog = appcatalog.NewService(persistence.NewGormCategoryRepository(db), products, bus)
	a.partner = apppartner.NewService(customers, suppliers, tx, bus)
	a.inventory = appinventory.NewService(units, persistence.NewGormStockRepository(db), products, tx, metrics)

	var err error
	a.credit, err = appcredit.NewService(appcredit.Deps{
		Controls:    persistence.NewGormCreditControlRepository(db),
		Invoices:    persistence.NewGormOpenInvoiceReader(db),
		Reminders:   persistence.NewGormReminderRepository(db),
		Collections: persistence.NewGormCollectionRepository(db),
		Reviews:     persistence.NewGormReviewRepository(db),
		Customers:   customers,
		Numbers:     numbers,
		Tx:          tx,
		Notifier:    notification.NewLogNotifier(),
		Limits:      a.partner,
		Observer:    metrics,
	}, appcredit.Options{
		AgingBounds: cfg.Credit.AgingBuckets,
		Reminders: credit.ReminderPolicy{
			FirstDays:  cfg.Credit.FirstReminderDays,
			SecondDays: cfg.Credit.SecondReminderDays,
			FinalDays:  cfg.Credit.FinalReminderDays,
			Channel:    credit.Channel(cfg.Credit.DefaultChannel),
		},
		ReminderBatch: cfg.Scheduler.ReminderBatchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("credit service: %w", err)
	}

	a.trade = apptrade.NewService(apptrade.Deps{
		Orders:    persistence.NewGormSalesOrderRepository(db),
		Invoices:  persistence.NewGormInvoiceRepository(db),
		Purchases: persistence.NewGormPurchaseOrderRepository(db),
		Receipts:  receipts,
		Payments:  persistence.NewGormPaymentRepository(db),
		Customers: customers,
		Suppliers: suppliers,
		Numbers:   numbers,
		Tx:        tx,
		Events:    bus,
		Credit:    a.credit,
		Stock:     a.inventory,
		Observer:  metrics,
	})
	a.credit.SetPaymentRecorder(a.trade)

	a.production = appproduction.NewService(appproduction.Deps{
		BOMs:     persistence.NewGormBOMRepository(db),
		Orders:   persistence.NewGormProductionOrderRepository(db),
		Batches:  batches,
		Products: products,
		Numbers:  numbers,
		Tx:       tx,
		Stock:    a.inventory,
	})
	a.quality = appquality.NewService(appquality.Deps{
		Documents:   persistence.NewGormQualityDocumentRepository(db),
		Inspections: persistence.NewGormInspectionRepository(db),
		NCRs:        persistence.NewGormNCRRepository(db),
		Batches:     batches,
		Receipts:    receipts,
		Products:    products,
		Numbers:     numbers,
		Tx:          tx,
		Events:      bus,
	})
	a.finance = appfinance.NewService(appfinance.Deps{
		Accounts: persistence.NewGormAccountRepository(db),
		Vouchers: persistence.NewGormVoucherRepository(db),
		Ledger:   persistence.NewGormLedgerRepository(db),
		Numbers:  numbers,
		Tx:       tx,
	})
	a.hr = apphr.NewService(apphr.Deps{
		Departments: persistence.NewGormDepartmentRepository(db),
		Employees:   persistence.NewGormEmployeeRepository(db),
		Attendance:  persistence.NewGormAttendanceRepository(db),
		Leaves:      persistence.NewGormLeaveRepository(db),
		Components:  persistence.NewGormSalaryComponentRepository(db),
		Payroll:     persistence.NewGormPayrollRepository(db),
		Tx:          tx,
	})
	a.construction = appconstruction.NewService(appconstruction.Deps{
		Projects:     persistence.NewGormProjectRepository(db),
		Activities:   persistence.NewGormActivityRepository(db),
		Inspections:  persistence.NewGormSiteInspectionRepository(db),
		Workmanship:  persistence.NewGormWorkmanshipRepository(db),
		Snags:        persistence.NewGormSnagRepository(db),
		RFIs:         persistence.NewGormRFIRepository(db),
		Submittals:   persistence.NewGormSubmittalRepository(db),
		DailyReports: persistence.NewGormDailyReportRepository(db),
		Numbers:      numbers,
		Tx:           tx,
	})

	store, err := newObjectStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.document = appdocument.NewService(appdocument.Deps{
		Categories: persistence.NewGormDocumentCategoryRepository(db),
		Documents:  persistence.NewGormDocumentRepository(db),
		Files:      persistence.NewGormCloudFileRepository(db),
		Storage:    store,
		Tx:         tx,
		URLExpiry:  cfg.Storage.PresignExpiration,
	})

	plantDeps := appplant.Deps{
		Devices:  persistence.NewGormDeviceRepository(db),
		Readings: persistence.NewGormReadingRepository(db),
		Units:    units,
		Tx:       tx,
		Observer: metrics,
	}
	if rdb != nil {
		plantDeps.Cache = cache.NewJSONCache[plant.Reading](rdb, "erp:plant:latest:", latestReadingTTL)
	}
	a.plant = appplant.NewService(plantDeps)

	engine, err := infraprint.NewEngine()
	if err != nil {
		return nil, err
	}
	printDeps := appprinting.Deps{
		Templates: persistence.NewGormPrintTemplateRepository(db),
		Tx:        tx,
		Engine:    engine,
		Company:   a.org,
		Observer:  metrics,
		PaperSize: printing.PaperSize(cfg.Printing.DefaultPaperSize),
	}
	if cfg.Printing.PDFEnabled {
		chrome := infraprint.NewChromePDF(cfg.Printing, log)
		a.closers = append(a.closers, closer{name: "chrome", close: chrome.Close})
		printDeps.PDF = chrome
	}
	if cfg.Printing.ArchiveRendered {
		printDeps.Archive = store
	}
	a.printing = appprinting.NewService(printDeps)

	subscribe(bus, a, log)

	if cfg.Scheduler.Enabled {
		a.scheduler, err = newScheduler(cfg, a, rdb, metrics, log)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

// subscribe wires the cross-context event handlers. The bus is synchronous,
// so handlers run inside the publisher's transaction.
func subscribe(bus *event.Bus, a *app, log *zap.Logger) {
	handlers := []shared.EventHandler{
		appcredit.NewCustomerEventHandler(a.credit),
		appcredit.NewInvoiceEventHandler(a.credit),
		apptrade.NewStockEventHandler(a.inventory),
		appproduction.NewQualityEventHandler(a.production),
	}
	for _, h := range handlers {
		bus.Subscribe(h)
		log.Debug("Event handler subscribed", zap.Strings("event_types", h.EventTypes()))
	}
}

func newObjectStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (objectStore, error) {
	if !cfg.Storage.Enabled {
		log.Warn("Object storage disabled, files are kept in memory")
		return storage.NewMemoryObjectStorage(), nil
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
		storage.WithLogger(log), storage.WithPresignExpiration(cfg.Storage.PresignExpiration))
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	return s3, nil
}

func newScheduler(cfg *config.Config, a *app, rdb *redis.Client, metrics *telemetry.Metrics, log *zap.Logger) (*scheduler.Scheduler, error) {
	var locker scheduler.Locker = scheduler.NewLocalLocker()
	if rdb != nil {
		locker = scheduler.NewRedisLocker(rdb)
	}
	sc := scheduler.DefaultConfig()
	if cfg.Scheduler.LockTTL > 0 {
		sc.LockTTL = cfg.Scheduler.LockTTL
	}
	if cfg.Scheduler.JobTimeout > 0 {
		sc.JobTimeout = cfg.Scheduler.JobTimeout
	}
	s, err := scheduler.NewScheduler(sc, locker, log)
	if err != nil {
		return nil, err
	}
	s.SetObserver(metrics)

	jobs := []scheduler.Job{
		{Name: "credit_daily", Spec: cfg.Scheduler.CreditRefreshCron, Run: func(ctx context.Context) error {
			_, err := a.credit.RunDaily(ctx)
			return err
		}},
		{Name: "invoice_overdue_sweep", Spec: cfg.Scheduler.OverdueSweepCron, Run: func(ctx context.Context) error {
			_, err := a.trade.MarkOverdue(ctx, time.Now())
			return err
		}},
		{Name: "credit_reminders", Spec: cfg.Scheduler.ReminderCron, Run: func(ctx context.Context) error {
			_, err := a.credit.SendAllDueReminders(ctx)
			return err
		}},
	}
	for _, j := range jobs {
		if j.Spec == "" {
			continue
		}
		if err := s.Register(j); err != nil {
			return nil, fmt.Errorf("scheduler: %w", err)
		}
	}
	return s, nil
}
