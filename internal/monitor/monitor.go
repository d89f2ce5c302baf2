// Package monitor periodically reports scanner health to InfluxDB.
package monitor

import (
	"context"
	"runtime"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/markerscan/markerd/internal/cache"
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Influx        PointWriter
	Cache         *cache.DetectionCache
	Frames        *cache.SafeCounter
	MarkerTimeout time.Duration
	Interval      time.Duration
	Logger        zerolog.Logger
}

// PointWriter is the subset of the influx manager the monitor needs.
type PointWriter interface {
	WritePoint(ctx context.Context, bucket string, point *influxdb2_write.Point) error
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	startTime time.Time
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	if deps.Frames == nil {
		deps.Frames = &cache.SafeCounter{}
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// HealthPoint builds the current scanner health point.
func (s *Service) HealthPoint(now time.Time) *influxdb2_write.Point {
	active := s.deps.Cache.Active(now, s.deps.MarkerTimeout)

	return influxdb2_write.NewPointWithMeasurement("scanner").
		AddField("active_markers", len(active)).
		AddField("tracked_markers", s.deps.Cache.Len()).
		AddField("frames_processed", s.deps.Frames.Value()).
		AddField("goroutines", runtime.NumGoroutine()).
		AddField("uptime_s", now.Sub(s.startTime).Seconds()).
		SetTime(now)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.startTime = time.Now()
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.deps.Logger.Debug().Msg("Starting health monitor goroutine")

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case now := <-ticker.C:
				point := s.HealthPoint(now)
				if err := s.deps.Influx.WritePoint(context.Background(), "scanner_health", point); err != nil {
					s.deps.Logger.Error().Err(err).Msg("Error writing health point")
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
