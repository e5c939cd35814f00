package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/Candide-27/credit-risk-modeling/internal/config"
	"github.com/Candide-27/credit-risk-modeling/internal/risk"
	"github.com/Candide-27/credit-risk-modeling/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     config.PathsConfig
	tables    risk.Tables
	scenarios int
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version string, cfg *config.Config, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized", slog.String("version", version))

	return &HealthService{
		version:   version,
		paths:     cfg.Paths,
		tables:    cfg.Tables(),
		scenarios: len(cfg.Scenarios),
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether parameters are loaded and the reports
// directory is usable
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"parameters": hs.checkParameters(),
			"reports":    hs.checkReportsDir(),
		},
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	if status.Status != "ready" {
		hs.logger.WarnContext(ctx, "ReadinessCheck: not ready", slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":      hs.version,
		"api_version":  contracts.APIVersion,
		"git_commit":   contracts.GitCommit,
		"build_time":   contracts.BuildTime,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkParameters() ServiceHealth {
	if len(hs.tables.CCF) == 0 || len(hs.tables.PD) == 0 || len(hs.tables.LGD) == 0 {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "lookup tables are empty",
		}
	}
	if hs.scenarios == 0 {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "no stress scenarios configured",
		}
	}
	return ServiceHealth{
		Status: "ready",
		Message: fmt.Sprintf("%d stages, %d ratings, %d collateral types, %d scenarios",
			len(hs.tables.CCF), len(hs.tables.PD), len(hs.tables.LGD), hs.scenarios),
		Uptime: time.Since(hs.startTime).String(),
	}
}

func (hs *HealthService) checkReportsDir() ServiceHealth {
	dir := hs.paths.ReportsDir
	if dir == "" {
		return ServiceHealth{Status: "ready", Message: "no reports directory configured"}
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return ServiceHealth{Status: "ready", Message: "reports directory will be created on first export"}
	case err != nil:
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("reports directory: %v", err)}
	case !info.IsDir():
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("%s is not a directory", dir)}
	}
	return ServiceHealth{Status: "ready", Message: "reports directory available"}
}
