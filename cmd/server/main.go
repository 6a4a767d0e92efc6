package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"videocomments/pkg/api"
	"videocomments/pkg/devapi"
	"videocomments/pkg/models"
	"videocomments/pkg/remote"
	"videocomments/pkg/report"
	"videocomments/pkg/session"
	"videocomments/pkg/storage/memdb"
	"videocomments/pkg/widget"
)

var ErrConfParamMissing = fmt.Errorf("missing config parameter")

type Config struct {
	ServiceName string `toml:"serviceName"`
	HTTPAddr    string `toml:"httpAddr"`
	LogLevel    string `toml:"logLevel"`
	VideoID     string `toml:"videoID"`

	KafkaAddr    string `toml:"kafkaAddr"`
	KafkaTopic   string `toml:"kafkaTopic"`
	FailureTopic string `toml:"failureTopic"`
	KafkaBatch   int    `toml:"kafkaBatch"`

	Remote remote.Config `toml:"remote"`
	User   models.User   `toml:"user"`
	Dev    DevConfig     `toml:"dev"`
}

// DevConfig enables the in-memory comments service.
type DevConfig struct {
	Enabled  bool              `toml:"enabled"`
	HTTPAddr string            `toml:"httpAddr"`
	Tokens   map[string]string `toml:"tokens"`
}

func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("%w: serviceName", ErrConfParamMissing)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("%w: httpAddr", ErrConfParamMissing)
	}
	if c.Dev.Enabled && c.Dev.HTTPAddr == "" {
		return fmt.Errorf("%w: dev.httpAddr", ErrConfParamMissing)
	}

	return c.Remote.Validate()
}

func main() {
	var (
		configPath string
		httpAddr   string
		logLevel   string
		videoID    string
		remoteURL  string
		kafkaAddr  string
		kafkaTopic string
		kafkaBatch int
		dev        bool
	)

	flag.StringVar(&configPath, "servconf", "cmd/server/config.toml", "Path to TOML config file")
	flag.StringVar(&httpAddr, "http", "", "HTTP server address in the form 'host:port'.")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.StringVar(&videoID, "video", "", "Video mounted at start.")
	flag.StringVar(&remoteURL, "remote", "", "Comments service base URL.")
	flag.StringVar(&kafkaAddr, "kafka", "", "Kafka server address in the form 'host:port'.")
	flag.StringVar(&kafkaTopic, "topic", "", "Kafka topic for access logs.")
	flag.IntVar(&kafkaBatch, "batch", 0, "Kafka batch size.")
	flag.BoolVar(&dev, "dev", false, "Run an in-memory comments service next to the widget.")
	flag.Parse()

	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		log.Fatalf("[server] failed to load config file %s: %v", configPath, err)
	}

	// Override config with flags if set
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if videoID != "" {
		cfg.VideoID = videoID
	}
	if remoteURL != "" {
		cfg.Remote.BaseURL = remoteURL
	}
	if kafkaAddr != "" {
		cfg.KafkaAddr = kafkaAddr
	}
	if kafkaTopic != "" {
		cfg.KafkaTopic = kafkaTopic
	}
	if kafkaBatch != 0 {
		cfg.KafkaBatch = kafkaBatch
	}
	if dev {
		cfg.Dev.Enabled = true
	}
	if cfg.Dev.Enabled && cfg.Remote.BaseURL == "" {
		cfg.Remote.BaseURL = "http://localhost" + cfg.Dev.HTTPAddr
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[server] invalid config %s: %v", configPath, err)
	}

	if !strings.Contains(cfg.HTTPAddr, ":") {
		log.Warn("[server] use ':' before port number, e.g. ':8080'")
	}

	switch cfg.LogLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}

	var accessWriter, failureWriter report.MessageWriter
	var writers []*kafka.Writer
	if cfg.KafkaAddr != "" {
		for _, topic := range []string{cfg.KafkaTopic, cfg.FailureTopic} {
			if topic == "" {
				continue
			}
			kw := &kafka.Writer{
				Addr:      kafka.TCP(cfg.KafkaAddr),
				Topic:     topic,
				BatchSize: cfg.KafkaBatch,
			}
			if err := createTopic(kw.Addr.String(), kw.Topic); err != nil {
				log.Warnf("[server] failed to create Kafka topic %s: %v", topic, err)
			}
			writers = append(writers, kw)

			if topic == cfg.KafkaTopic {
				accessWriter = kw
			}
			if topic == cfg.FailureTopic {
				failureWriter = kw
			}
		}
	} else {
		log.Warnf("[server] kafka was not configured, logs will not be sent to Kafka")
	}

	var devSrv *http.Server
	if cfg.Dev.Enabled {
		devSrv = &http.Server{
			Addr:    cfg.Dev.HTTPAddr,
			Handler: devapi.New(cfg.ServiceName+"-dev", memdb.New(), cfg.Dev.Tokens).Router(),
		}
		go func() {
			log.Infof("[server] starting dev comments service on port %v", cfg.Dev.HTTPAddr)
			if err := devSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("[server] failed to start dev comments service: %v", err)
			}
		}()
	}

	client, err := remote.New(cfg.Remote)
	if err != nil {
		log.Fatalf("[server] failed to create comments client: %v", err)
	}

	sessions := session.New(cfg.User)
	user, err := sessions.CurrentUser()
	if err != nil {
		log.Warnf("[server] %v, the widget is mounted without avatar", err)
	}

	w := widget.New(client, user)
	rep := report.New(cfg.ServiceName, failureWriter)

	reportDone := make(chan struct{})
	go func() {
		defer close(reportDone)
		rep.Run(context.Background(), w.Failures())
	}()

	if cfg.VideoID != "" {
		w.SetVideo(cfg.VideoID)
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.New(cfg.ServiceName, w, rep, accessWriter).Router(),
	}

	go func() {
		log.Infof("[server] starting on port %v", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[server] failed to start: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[server] HTTP server shutdown error: %v", err)
	} else {
		log.Info("[server] HTTP server shut down gracefully")
	}

	// Closing the widget closes its failure channel and stops the reporter.
	w.Close()
	<-reportDone

	if devSrv != nil {
		if err := devSrv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("[server] dev comments service shutdown error: %v", err)
		}
	}

	for _, kw := range writers {
		if err := kw.Close(); err != nil {
			log.Errorf("[server] failed to close Kafka writer %s: %v", kw.Topic, err)
		}
	}
}

func createTopic(broker, topic string) error {
	conn, err := kafka.DialContext(context.Background(), "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}
