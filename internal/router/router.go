package router

import (
	"database/sql"
	"net/http"
	"time"

	"stable-sharing/internal/adapters/capabilities/static"
	"stable-sharing/internal/adapters/notify/lognotify"
	mem "stable-sharing/internal/adapters/storage/memory"
	pg "stable-sharing/internal/adapters/storage/postgres"
	"stable-sharing/internal/domain/audit"
	"stable-sharing/internal/domain/connections"
	"stable-sharing/internal/domain/consents"
	"stable-sharing/internal/domain/horses"
	"stable-sharing/internal/domain/records"
	"stable-sharing/internal/domain/sharepacks"
	"stable-sharing/internal/domain/shares"
	"stable-sharing/internal/domain/shareview"
	"stable-sharing/internal/middleware"
	"stable-sharing/internal/platform/logger"
	"stable-sharing/internal/platform/metrics"
	"stable-sharing/internal/platform/tasks"
	"stable-sharing/internal/ports/auth"
	"stable-sharing/internal/ports/capabilities"
	"stable-sharing/internal/ports/notify"
	"stable-sharing/internal/ports/tenants"

	_ "stable-sharing/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcionales; sin ellos se usan defaults de dev.
	Log          logger.Logger
	Capabilities capabilities.Resolver // default: tabla vacía (nadie administra)
	Tenants      tenants.Directory     // default: directorio vacío
	Notifier     notify.Notifier       // default: log
	Tasks        tasks.Dispatcher      // default: inline
	Presets      consents.PresetPolicy // default: tabla embebida
	SystemPacks  []sharepacks.Pack     // default: packs embebidos

	ResolveTimeout time.Duration
	PublicBaseURL  string
}

type repos struct {
	horses  horses.Repository
	records records.Repository
	packs   sharepacks.Repository
	shares  shares.Repository
	conns   connections.Repository
	grants  consents.Repository
	audit   audit.Repository
}

func newRepos(db *sql.DB) repos {
	if db != nil {
		return repos{
			horses:  pg.NewHorsesRepo(db),
			records: pg.NewRecordsRepo(db),
			packs:   pg.NewSharePacksRepo(db),
			shares:  pg.NewSharesRepo(db),
			conns:   pg.NewConnectionsRepo(db),
			grants:  pg.NewGrantsRepo(db),
			audit:   pg.NewAuditRepo(db),
		}
	}
	return repos{
		horses:  mem.NewHorseRepo(),
		records: mem.NewRecordRepo(),
		packs:   mem.NewPackRepo(),
		shares:  mem.NewShareRepo(),
		conns:   mem.NewConnectionRepo(),
		grants:  mem.NewGrantRepo(),
		audit:   mem.NewAuditRepo(),
	}
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	caps := opts.Capabilities
	if caps == nil {
		caps = static.New()
	}
	dir := opts.Tenants
	if dir == nil {
		dir = mem.NewTenantDirectory(nil)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = lognotify.New(log)
	}
	dispatcher := opts.Tasks
	if dispatcher == nil {
		dispatcher = tasks.Inline{Log: log}
	}
	var policy consents.PresetPolicy = consents.DefaultPresets()
	if opts.Presets != nil {
		policy = opts.Presets
	}
	system := opts.SystemPacks
	if len(system) == 0 {
		system = sharepacks.DefaultSystemPacks()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestLog(log))
	r.Use(metrics.Middleware)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	rp := newRepos(opts.DB)

	// Services por módulo
	horsesSvc := horses.NewService(rp.horses)
	recordsSvc := records.NewService(rp.records, horsesSvc)
	packsSvc := sharepacks.NewService(rp.packs, caps, system)
	auditSvc := audit.NewService(rp.audit)
	sharesSvc := shares.NewService(rp.shares, horsesSvc, packsSvc, caps, auditSvc)
	connsSvc := connections.NewService(connections.Deps{
		Repo:     rp.conns,
		Caps:     caps,
		Audit:    auditSvc,
		Tasks:    dispatcher,
		Notifier: notifier,
		Log:      log,
	})
	grantsSvc := consents.NewService(consents.Deps{
		Repo:        rp.grants,
		Connections: connsSvc,
		Caps:        caps,
		Audit:       auditSvc,
		Tasks:       dispatcher,
		Notifier:    notifier,
		Log:         log,
	})
	connsSvc.SetAcceptHook(consents.NewPresetApplier(grantsSvc, dir, policy, log))

	resolver := shareview.NewResolver(shareview.Deps{
		Shares:  sharesSvc,
		Horses:  horsesSvc,
		Records: recordsSvc,
		Grants:  grantsSvc,
		Audit:   auditSvc,
		Log:     log,
		Timeout: opts.ResolveTimeout,
	})

	// Pública, sin auth
	shareview.RegisterPublicRoutes(r, resolver)

	// Rutas por módulo
	horses.RegisterRoutes(r, horsesSvc)
	records.RegisterRoutes(r, recordsSvc)
	sharepacks.RegisterRoutes(r, packsSvc)
	shares.RegisterRoutes(r, sharesSvc, opts.PublicBaseURL)
	connections.RegisterRoutes(r, connsSvc)
	consents.RegisterRoutes(r, grantsSvc)
	shareview.RegisterRoutes(r, resolver)

	return r
}
