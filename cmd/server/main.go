package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"gopkg.in/yaml.v3"

	"github.com/audioscribe/audioscribe/internal/cleanup"
	"github.com/audioscribe/audioscribe/internal/handlers"
	"github.com/audioscribe/audioscribe/internal/jobs"
	"github.com/audioscribe/audioscribe/internal/storage"
	"github.com/audioscribe/audioscribe/internal/transcription"
)

// Config is the application configuration.
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Whisper struct {
		Model    string `yaml:"model"`
		Device   string `yaml:"device"`
		Compute  string `yaml:"compute"`
		Language string `yaml:"language"`
		Python   string `yaml:"python"`
	} `yaml:"whisper"`

	Storage struct {
		DataDir  string `yaml:"data_dir"`
		TempDir  string `yaml:"temp_dir"`
		Database string `yaml:"database"`
	} `yaml:"storage"`

	Progress struct {
		FallbackHorizonSeconds float64 `yaml:"fallback_horizon_seconds"`
		FallbackCap            float64 `yaml:"fallback_cap"`
	} `yaml:"progress"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb"`
	} `yaml:"limits"`
}

func main() {
	config, err := loadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(config.Storage.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	if err := cleanup.EnsureDir(config.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}

	logBuffer := &LogBuffer{lines: make([]string, 0, 1000)}
	log.SetOutput(io.MultiWriter(os.Stdout, logBuffer))

	log.Println("Initializing components...")

	db, err := storage.Open(config.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	layout := storage.NewLayout(config.Storage.DataDir)
	mgr := jobs.NewManager(db)
	runner := jobs.NewRunner(mgr)

	estimator := jobs.NewEstimator()
	if config.Progress.FallbackHorizonSeconds > 0 {
		estimator.FallbackHorizon = time.Duration(config.Progress.FallbackHorizonSeconds * float64(time.Second))
	}
	if config.Progress.FallbackCap > 0 {
		estimator.FallbackCap = config.Progress.FallbackCap
	}

	// Google Drive upload is optional; missing credentials just disable it.
	var driveClient *storage.DriveClient
	if _, err := os.Stat(config.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err = storage.NewDriveClient(
			config.GoogleDrive.CredentialsFile,
			config.GoogleDrive.TokenFile,
			config.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Printf("WARNING: Google Drive not available: %v", err)
			log.Println("Transcripts will only be saved locally")
			driveClient = nil
		} else {
			log.Println("Google Drive integration enabled")
		}
	} else {
		log.Println("Google Drive credentials not found - saving locally only")
	}

	// Diarization is optional too; a broken helper setup degrades to
	// unlabeled transcripts at job time.
	var diarizer transcription.Diarizer
	if d, err := transcription.NewPyannoteDiarizer(config.Whisper.Python); err != nil {
		log.Printf("WARNING: diarization helper unavailable: %v", err)
	} else {
		diarizer = d
	}

	defaults := transcription.Options{
		Model:    config.Whisper.Model,
		Device:   config.Whisper.Device,
		Compute:  config.Whisper.Compute,
		Language: config.Whisper.Language,
	}
	pipeline := transcription.NewPipeline(
		db,
		layout,
		mgr,
		estimator,
		defaults,
		transcription.LoadEngine(config.Whisper.Python),
		diarizer,
		driveClient,
	)

	cleanupScheduler := cleanup.NewScheduler(
		config.Storage.TempDir,
		time.Duration(config.Cleanup.IntervalMinutes)*time.Minute,
		time.Duration(config.Cleanup.MaxAgeHours)*time.Hour,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit: config.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	recordingsHandler := handlers.NewRecordingsHandler(db, layout, config.Storage.TempDir, config.Limits.MaxFileSizeMB)
	transcribeHandler := handlers.NewTranscribeHandler(db, mgr, runner, pipeline)
	jobsHandler := handlers.NewJobsHandler(mgr)
	transcriptsHandler := handlers.NewTranscriptsHandler(db)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/api/recordings", recordingsHandler.Create)
	app.Get("/api/recordings", recordingsHandler.List)
	app.Post("/api/transcribe", transcribeHandler.Create)
	app.Get("/api/jobs/:id", jobsHandler.Get)
	app.Delete("/api/jobs/:id", jobsHandler.Delete)
	app.Get("/ws/jobs/:id", websocket.New(jobsHandler.Watch))
	app.Get("/api/transcripts/:id", transcriptsHandler.Get)
	app.Get("/api/transcripts/:id/text", transcriptsHandler.GetText)
	app.Delete("/api/transcripts/:id", transcriptsHandler.Delete)

	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST   /api/recordings           - Upload audio file")
	log.Println("   GET    /api/recordings           - List recordings")
	log.Println("   POST   /api/transcribe           - Create transcription job")
	log.Println("   GET    /api/jobs/:id             - Job status and progress")
	log.Println("   DELETE /api/jobs/:id             - Delete job")
	log.Println("   GET    /ws/jobs/:id              - WebSocket progress stream")
	log.Println("   GET    /api/transcripts/:id      - Transcript metadata and text")
	log.Println("   GET    /api/transcripts/:id/text - Raw transcript text")
	log.Println("   DELETE /api/transcripts/:id      - Delete transcript")
	log.Println("   GET    /logs                     - View server logs")
	log.Println("   GET    /health                   - Health check")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// LogBuffer captures recent log lines in memory for the /logs endpoint.
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}
	return len(p), nil
}

// GetLogs returns a copy of the buffered lines.
func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}

// loadConfig reads the YAML configuration file.
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}
	return &config, nil
}
