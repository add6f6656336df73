package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"proteinid/config"
	"proteinid/controllers"
	"proteinid/routes"
	"proteinid/services"
	"proteinid/utils"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

func main() {
	var envFile string
	root := &cobra.Command{
		Use:           "proteinid",
		Short:         "Protein intake tracking API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env)")

	load := func() (*config.Config, hclog.Logger, error) {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		cfg, err := config.Load(files...)
		if err != nil {
			return nil, nil, err
		}
		return cfg, config.NewLogger(cfg.LogLevel), nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, log)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			db, err := config.OpenDB(cfg, log)
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return err
			}
			log.Info("schema up to date")
			return nil
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config, log hclog.Logger) (services.Store, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on exit")
		return services.NewMemoryStore(), nil
	}
	db, err := config.OpenDB(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := config.Migrate(db); err != nil {
		return nil, err
	}
	return services.NewGormStore(db), nil
}

// awsClients holds the optional AWS collaborators; each stays nil unless
// its settings are present.
type awsClients struct {
	labels   services.LabelDetector
	uploader services.ImageUploader
	mailer   services.Mailer
	sns      services.SNSAPI
}

func loadAWS(ctx context.Context, cfg *config.Config, log hclog.Logger) (awsClients, error) {
	var out awsClients
	if !cfg.RecognitionEnabled && cfg.S3Bucket == "" && cfg.SESEmail == "" && cfg.SNSFCMArn == "" {
		log.Info("AWS integrations disabled")
		return out, nil
	}
	awsCfg, err := config.LoadAWS(ctx, cfg.AWSRegion)
	if err != nil {
		return out, err
	}

	if cfg.RecognitionEnabled {
		out.labels = services.NewRekognitionService(awsCfg)
	}
	if cfg.S3Bucket != "" {
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) { o.Region = cfg.S3Region })
		out.uploader = utils.NewS3Uploader(client, cfg.S3Bucket, cfg.CloudFrontURL)
	}
	if cfg.SESEmail != "" {
		out.mailer = utils.NewSESMailer(ses.NewFromConfig(awsCfg), cfg.SESEmail)
	}
	if cfg.SNSFCMArn != "" {
		out.sns = sns.NewFromConfig(awsCfg)
	}
	log.Info("AWS integrations",
		"region", awsCfg.Region,
		"rekognition", out.labels != nil,
		"s3", out.uploader != nil,
		"ses", out.mailer != nil,
		"sns", out.sns != nil,
	)
	return out, nil
}

func serve(ctx context.Context, cfg *config.Config, log hclog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	clients, err := loadAWS(ctx, cfg, log)
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	usda := services.NewUSDAService(cfg.USDAAPIKey, cfg.USDABaseURL)
	usda.HTTPClient = httpClient
	translator := services.NewTranslationService(cfg.TranslateURL)
	translator.HTTPClient = httpClient

	foods := services.NewFoodService(translator, usda, clients.labels, log)
	push := services.NewPushService(store, clients.sns, cfg.SNSFCMArn, log)
	auth := services.NewAuthService(store, store, clients.mailer, []byte(cfg.JWTSecret), cfg.TokenTTL, log)
	profiles := services.NewProfileService(store, clients.uploader, log)
	logs := services.NewLogService(store, store, push, log)
	logs.Location = loc
	weights := services.NewWeightService(store, store, log)
	weights.Location = loc
	stats := services.NewStatsService(store, store, log)
	stats.Location = loc

	var dev *controllers.DevController
	if log.IsDebug() {
		gin.SetMode(gin.DebugMode)
		dev = controllers.NewDevController(push)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := routes.SetupRouter(routes.Handlers{
		Auth:     controllers.NewAuthController(auth),
		Profile:  controllers.NewProfileController(profiles),
		Food:     controllers.NewFoodController(foods),
		SearchWS: controllers.NewSearchWSController(foods, services.SearchSessionOptions{}, log),
		Log:      controllers.NewLogController(logs),
		Weight:   controllers.NewWeightController(weights),
		Stats:    controllers.NewStatsController(stats),
		Device:   controllers.NewDeviceController(push),
		Dev:      dev,
	}, []byte(cfg.JWTSecret), log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "store", cfg.Store)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
