package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/golang/glog"
	"github.com/peterbourgon/ff/v3"

	"github.com/livepeer/catalyst-api/api"
	"github.com/livepeer/catalyst-api/assets"
	"github.com/livepeer/catalyst-api/config"
	"github.com/livepeer/catalyst-api/log"
	"github.com/livepeer/catalyst-api/metrics"
	"github.com/livepeer/catalyst-api/objectstore"
	"github.com/livepeer/catalyst-api/pprof"
	"github.com/livepeer/catalyst-api/providers"
	"github.com/livepeer/catalyst-api/render"
	"github.com/livepeer/catalyst-api/statestore"
	"github.com/livepeer/catalyst-api/wizard"
)

func main() {
	if err := flag.Set("logtostderr", "true"); err != nil {
		glog.Fatal(err)
	}
	fs := flag.NewFlagSet("video-job-orchestrator", flag.ExitOnError)
	cli := config.Cli{}

	ver := fs.Bool("version", false, "print application version")
	fs.StringVar(&cli.HTTPAddr, "http-addr", "0.0.0.0:8989", "address to bind the HTTP API to")
	fs.StringVar(&cli.StateStoreURL, "state-store-url", "", "Postgres connection string for the video job state store")
	fs.StringVar(&cli.ServiceRoleCred, "service-role-credential", "", "credential used for the object store's service role")
	fs.StringVar(&cli.LLMCredential, "llm-credential", "", "credential for the LLM provider (script + storyboard)")
	fs.StringVar(&cli.ImageProviderCred, "image-provider-credential", "", "credential for the image generation provider")
	fs.StringVar(&cli.TTSCredential, "tts-credential", "", "credential for the TTS provider")
	fs.StringVar(&cli.PublicBaseURL, "public-base-url", "", "externally reachable base URL object-store public URLs are rooted at")
	fs.StringVar(&cli.APIToken, "api-token", "", "if set, requires Bearer auth matching this token on every route")
	fs.IntVar(&cli.MetricsPort, "metrics-port", config.DefaultMetricsPort, "port the Prometheus /metrics endpoint listens on")
	fs.IntVar(&cli.PprofPort, "pprof-port", config.DefaultPprofPort, "port the pprof debug endpoint listens on")
	fs.StringVar(&cli.LLMBaseURL, "llm-base-url", "", "base URL of the LLM provider's HTTP API")
	fs.StringVar(&cli.ImageBaseURL, "image-base-url", "", "base URL of the image provider's HTTP API")
	fs.StringVar(&cli.TTSBaseURL, "tts-base-url", "", "base URL of the TTS provider's HTTP API")
	fs.IntVar(&cli.ImageConcurrency, "image-concurrency", config.DefaultImageConcurrency, "max in-flight per-scene image generations")
	fs.IntVar(&cli.ImageTimeoutMs, "image-timeout-ms", config.DefaultImageTimeoutMs, "per-call image provider timeout in milliseconds")
	fs.IntVar(&cli.LLMTimeoutMs, "llm-timeout-ms", config.DefaultLLMTimeoutMs, "per-call LLM provider timeout in milliseconds")
	fs.IntVar(&cli.TTSTimeoutMs, "tts-timeout-ms", config.DefaultTTSTimeoutMs, "per-call TTS provider timeout in milliseconds")
	fs.IntVar(&cli.RenderTimeoutMs, "render-timeout-ms", config.DefaultRenderTimeoutMs, "transcoder invocation timeout in milliseconds")
	fs.IntVar(&cli.RetryAttempts, "retry-attempts", config.DefaultRetryAttempts, "max attempts for retriable provider calls")
	fs.IntVar(&cli.RetryBaseDelayMs, "retry-base-delay-ms", config.DefaultRetryBaseDelayMs, "base exponential backoff delay in milliseconds")
	fs.StringVar(&cli.VoiceID, "voice-id", "", "TTS provider voice handle")
	fs.IntVar(&cli.FPS, "fps", config.DefaultFPS, "output video frame rate")

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("VIDEOGEN")); err != nil {
		glog.Fatalf("error parsing cli: %s", err)
	}
	cli.Defaults()

	if *ver {
		fmt.Printf("video-job-orchestrator version: %s\n", config.Version)
		return
	}

	if missing := cli.RequiredEnvMissing(); len(missing) > 0 {
		glog.Fatalf("missing required configuration: %v", missing)
	}

	db, err := statestore.Open(cli.StateStoreURL)
	if err != nil {
		glog.Fatalf("failed to open state store: %s", err)
	}
	store := statestore.New(db)
	if err := store.Migrate(context.Background()); err != nil {
		glog.Fatalf("failed to migrate state store: %s", err)
	}

	sess, err := session.NewSessionWithOptions(session.Options{SharedConfigState: session.SharedConfigEnable})
	if err != nil {
		glog.Fatalf("failed to create AWS session: %s", err)
	}
	objects := objectstore.New(sess, cli.PublicBaseURL)
	for _, bucket := range []string{config.Buckets.Images, config.Buckets.Audio, config.Buckets.Captions, config.Buckets.Videos} {
		if err := objects.EnsureBucket(context.Background(), bucket); err != nil {
			glog.Fatalf("failed to ensure bucket %s: %s", bucket, err)
		}
	}

	llm := providers.NewLLMAdapter(cli.LLMBaseURL, cli.LLMCredential)
	image := providers.NewImageAdapter(cli.ImageBaseURL, cli.ImageProviderCred, placeholderImagePNG)
	tts := providers.NewTTSAdapter(cli.TTSBaseURL, cli.TTSCredential, cli.VoiceID)
	transcoder := providers.NewTranscoder()

	assetsOrchestrator := assets.New(store, objects, image, tts, transcoder, assets.Config{
		ImageConcurrency: cli.ImageConcurrency,
		ImageTimeout:     cli.ImageTimeout(),
		TTSTimeout:       cli.TTSTimeout(),
		RetryAttempts:    uint(cli.RetryAttempts),
		RetryBaseDelay:   cli.RetryBaseDelay(),
	})
	renderEngine := render.New(store, objects, transcoder, render.Config{
		RenderTimeout: cli.RenderTimeout(),
		FPS:           cli.FPS,
	})
	wizardController := wizard.New()

	go func() {
		if err := metrics.ListenAndServe(cli.MetricsPort); err != nil {
			glog.Errorf("metrics server exited: %s", err)
		}
	}()
	go func() {
		if err := pprof.ListenAndServe(cli.PprofPort); err != nil {
			glog.Errorf("pprof server exited: %s", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-c
		log.LogNoRequestID("shutdown signal received")
		cancel()
	}()

	if err := api.ListenAndServe(ctx, cli.HTTPAddr, api.Deps{
		Store:          store,
		ScriptLLM:      llm,
		BoardLLM:       llm,
		Assets:         assetsOrchestrator,
		Render:         renderEngine,
		Wizard:         wizardController,
		APIToken:       cli.APIToken,
		LLMTimeout:     cli.LLMTimeout(),
		RetryAttempts:  uint(cli.RetryAttempts),
		RetryBaseDelay: cli.RetryBaseDelay(),
	}); err != nil {
		glog.Fatalf("server exited with error: %s", err)
	}
}
