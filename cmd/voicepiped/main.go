// voicepiped is the voicepipe daemon: a WebSocket service that streams
// client audio through live transcription, reply generation and speech
// synthesis, and streams the spoken reply back.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/voicepipe/voicepipe/internal/config"
	"github.com/voicepipe/voicepipe/internal/log"
	"github.com/voicepipe/voicepipe/internal/metrics"
	"github.com/voicepipe/voicepipe/pkg/llm"
	"github.com/voicepipe/voicepipe/pkg/server"
	"github.com/voicepipe/voicepipe/pkg/session"
	"github.com/voicepipe/voicepipe/pkg/stt"
	"github.com/voicepipe/voicepipe/pkg/tts"
)

func main() {
	configPath := flag.String("config", "voicepipe.yaml", "path to config file")
	flag.Parse()

	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "voicepiped: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger := log.Component("voicepiped")

	m := metrics.New()

	sttSvc, err := stt.NewDeepgram(stt.Config{
		APIKey:      cfg.Deepgram.APIKey,
		URL:         cfg.Deepgram.URL,
		Model:       cfg.Deepgram.Model,
		Language:    cfg.Deepgram.Language,
		SampleRate:  cfg.Deepgram.SampleRate,
		Channels:    cfg.Deepgram.Channels,
		KeepAlive:   cfg.Deepgram.KeepAliveInterval(),
		AudioBuffer: cfg.Deepgram.AudioBufferFrames,
		Logger:      log.L(),
	})
	if err != nil {
		logger.Error("transcription setup failed", "error", err)
		os.Exit(1)
	}

	gen, err := llm.NewOpenAI(llm.Config{
		APIKey:     cfg.OpenAI.APIKey,
		Model:      cfg.OpenAI.ChatModel,
		OnFallback: m.GenerationRecoveries.Inc,
		Logger:     log.L(),
	})
	if err != nil {
		logger.Error("generation setup failed", "error", err)
		os.Exit(1)
	}

	synth, err := tts.NewOpenAI(
		tts.WithAPIKey(cfg.OpenAI.APIKey),
		tts.WithModel(cfg.OpenAI.TTSModel),
		tts.WithVoice(cfg.OpenAI.Voice),
		tts.WithTimeout(cfg.OpenAI.Timeout()),
		tts.WithRetry(cfg.OpenAI.MaxRetries, 100*time.Millisecond),
		tts.WithLogger(log.L()),
	)
	if err != nil {
		logger.Error("synthesis setup failed", "error", err)
		os.Exit(1)
	}
	defer synth.Close()

	pipeline, err := session.NewPipeline(session.Config{
		STT:               sttSvc,
		Generator:         gen,
		Synth:             synth,
		Metrics:           m,
		Logger:            log.L(),
		MaxSentenceLength: cfg.Session.MaxSentenceLength,
		OutboundBuffer:    cfg.Session.OutboundBufferFrames,
	})
	if err != nil {
		logger.Error("pipeline setup failed", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Address:  cfg.Server.Address,
		Debug:    cfg.Server.Debug,
		Pipeline: pipeline,
		Metrics:  m,
		Logger:   log.L(),
	})
	if err != nil {
		logger.Error("server setup failed", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server failed", "error", err)
		os.Exit(1)
	case s := <-sig:
		logger.Info("shutting down", "signal", s.String())
		if err := srv.Shutdown(); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}
}
