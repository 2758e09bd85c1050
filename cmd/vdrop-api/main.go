// README: Entry point; loads config, wires services, starts the HTTP server with graceful shutdown.
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"vdrop/internal/config"
	httptransport "vdrop/internal/http"
	"vdrop/internal/infra"
	"vdrop/internal/logger"
	"vdrop/internal/maps"
	"vdrop/internal/modules/account"
	"vdrop/internal/modules/address"
	"vdrop/internal/modules/audit"
	"vdrop/internal/modules/contact"
	"vdrop/internal/modules/identity"
	"vdrop/internal/modules/pickup"
	"vdrop/internal/modules/pricing"
	"vdrop/internal/modules/profile"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	appLog, err := logger.New(logger.Options{Namespace: "vdrop-api", Level: cfg.Log.Level, Dir: cfg.Log.Dir})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = appLog.Sync() }()
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DB.AutoMigrate {
		if err := infra.Migrate(cfg.DB.DSN, cfg.DB.MigrationsPath, appLog); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	idp, err := infra.NewFirebaseIdentity(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(ctx, cfg.Redis.Addr, appLog)
	defer func() { _ = redisClient.Close() }()

	objects, err := infra.NewS3ObjectStore(ctx, cfg.Storage.Region, cfg.Storage.Endpoint, cfg.Storage.PublicBaseURL)
	if err != nil {
		log.Fatalf("object store init: %v", err)
	}
	mailer := infra.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password)

	var verifier pickup.AddressVerifier
	if cfg.Maps.APIKey != "" {
		geo, err := maps.NewGeocodeService(cfg.Maps.APIKey, appLog.With(logger.String("component", "geocode")))
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		verifier = geo
	}

	events := audit.NewStore(dbPool)

	profileStore := profile.NewStore(dbPool)
	policy := identity.NewPolicy(cfg.Auth.AdminEmails)
	capCache := identity.NewRedisCache(redisClient, cfg.Auth.CapabilityCacheTTL)
	resolver := identity.NewResolver(profileStore, policy, capCache, appLog.With(logger.String("component", "identity")))

	profileSvc := profile.NewService(profile.Deps{
		Store:          profileStore,
		Identity:       idp,
		Mailer:         mailer,
		Capabilities:   resolver,
		Events:         events,
		InviteRedirect: cfg.Auth.InviteRedirectURL,
		Log:            appLog.With(logger.String("component", "profile")),
	})

	pricingSvc := pricing.NewService(pricing.DefaultRates)
	pickupSvc := pickup.NewService(pickup.Deps{
		Store:    pickup.NewStore(dbPool),
		Pricing:  pricingSvc,
		Events:   events,
		Objects:  objects,
		Verifier: verifier,
		Buckets:  pickup.Buckets{Labels: cfg.Storage.LabelBucket, Photos: cfg.Storage.PhotoBucket},
		Log:      appLog.With(logger.String("component", "pickup")),
	})

	accountSvc := account.NewService(account.Deps{
		Identity:      idp,
		Mailer:        mailer,
		Profiles:      profileSvc,
		ResetRedirect: cfg.Auth.PasswordResetURL,
		Log:           appLog.With(logger.String("component", "account")),
	})
	contactSvc := contact.NewService(contact.NewStore(dbPool), mailer, policy.AllowList(), appLog.With(logger.String("component", "contact")))

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Verifier:  idp,
		Resolver:  resolver,
		Pickups:   pickupSvc,
		Rates:     pricingSvc,
		Events:    events,
		Users:     profileSvc,
		Addresses: address.NewService(address.NewStore(dbPool)),
		Accounts:  accountSvc,
		Contact:   contactSvc,
		Log:       appLog.With(logger.String("component", "http")),
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		log.Fatal(err)
	}
	if err := serve(ctx, server, ln, cfg.HTTP.ShutdownTimeout, appLog); err != nil {
		log.Fatal(err)
	}
	contactSvc.Wait()
	appLog.Info("stopped")
}
