// Package gormstore persists the detection log through GORM, batching
// writes behind in-memory queues the way a busy frame stream requires.
package gormstore

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/markerscan/markerd/internal/config"
	"github.com/markerscan/markerd/internal/database"
	"github.com/markerscan/markerd/internal/model"
	"github.com/markerscan/markerd/internal/queue"
	"github.com/markerscan/markerd/pkg/core"
)

// Backend writes detections and frame stats to Postgres, falling back
// to SQLite when Postgres is unreachable or when configured directly.
type Backend struct {
	cfg config.StorageConfig
	log zerolog.Logger
	mgr *database.Manager

	detections *queue.Queue[model.DetectionEvent]
	frameStats *queue.Queue[model.FrameStat]

	sessionMu sync.Mutex
	sessionID uint

	stop chan struct{}
	done chan struct{}
}

// New creates a new gorm backend. Init must be called before use.
func New(cfg config.StorageConfig, log zerolog.Logger) *Backend {
	return &Backend{
		cfg:        cfg,
		log:        log,
		detections: queue.New[model.DetectionEvent](),
		frameStats: queue.New[model.FrameStat](),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Init connects to the database, migrates the schema, and starts the
// background flush loop.
func (b *Backend) Init() error {
	b.mgr = database.NewManager(b.log)

	switch b.cfg.Type {
	case "postgres":
		if err := b.mgr.Connect(); err != nil {
			return fmt.Errorf("database connect: %w", err)
		}
	case "sqlite":
		db, err := b.mgr.GetSqliteDB("")
		if err != nil {
			return fmt.Errorf("sqlite connect: %w", err)
		}
		b.mgr.DB = db
		b.mgr.IsValid = true
		b.mgr.ShouldSaveLocal = true
	default:
		return fmt.Errorf("gormstore does not handle storage type %q", b.cfg.Type)
	}

	if b.mgr.ShouldSaveLocal {
		b.mgr.SqliteFilePath = b.cfg.Gorm.SqliteFile
	}

	if err := b.mgr.Setup("markerd", core.Version); err != nil {
		return fmt.Errorf("database setup: %w", err)
	}

	go b.flushLoop()
	return nil
}

// Close flushes outstanding writes and shuts down the connection,
// dumping the in-memory SQLite database to disk when applicable.
func (b *Backend) Close() error {
	close(b.stop)
	<-b.done

	b.flush()

	if b.mgr.ShouldSaveLocal {
		if err := b.mgr.DumpMemoryToDisk(); err != nil {
			b.log.Error().Err(err).Msg("Failed to dump detection log to disk")
		}
	}

	if b.mgr.SqlDB != nil {
		return b.mgr.SqlDB.Close()
	}
	return nil
}

// StartSession creates a session row and routes subsequent writes to it.
func (b *Backend) StartSession(session *core.Session) error {
	row := model.Session{
		StartTime:      session.StartTime,
		MarkersFile:    session.MarkersFile,
		MarkerCount:    session.MarkerCount,
		DictionarySize: session.DictionarySize,
		ServerVersion:  session.ServerVersion,
	}
	if err := b.mgr.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	b.sessionMu.Lock()
	b.sessionID = row.ID
	b.sessionMu.Unlock()

	session.ID = row.ID
	b.log.Info().Uint("session", row.ID).Str("markersFile", session.MarkersFile).Msg("Session started")
	return nil
}

// EndSession flushes pending writes and stamps the session end time.
func (b *Backend) EndSession() error {
	b.sessionMu.Lock()
	id := b.sessionID
	b.sessionID = 0
	b.sessionMu.Unlock()

	if id == 0 {
		return fmt.Errorf("no session in progress")
	}

	b.flush()

	now := time.Now()
	err := b.mgr.DB.Model(&model.Session{}).
		Where("id = ?", id).
		Update("end_time", &now).Error
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// RecordDetection queues a marker sighting for the next batch write.
func (b *Backend) RecordDetection(d *core.Detection) error {
	b.sessionMu.Lock()
	id := b.sessionID
	b.sessionMu.Unlock()
	if id == 0 {
		return fmt.Errorf("no session in progress")
	}

	corners, err := cornersJSON(d.Corners)
	if err != nil {
		return err
	}

	b.detections.Push(model.DetectionEvent{
		SessionID: id,
		Time:      d.Timestamp,
		MarkerID:  d.MarkerID,
		Corners:   corners,
		CenterX:   d.Center.X,
		CenterY:   d.Center.Y,
		Area:      d.Area,
	})

	if b.detections.Len() >= b.batchSize() {
		b.flush()
	}
	return nil
}

// RecordFrameStat queues a frame processing summary.
func (b *Backend) RecordFrameStat(s *core.FrameStat) error {
	b.sessionMu.Lock()
	id := b.sessionID
	b.sessionMu.Unlock()
	if id == 0 {
		return fmt.Errorf("no session in progress")
	}

	b.frameStats.Push(model.FrameStat{
		SessionID:   id,
		Time:        s.Timestamp,
		Width:       s.Width,
		Height:      s.Height,
		Detections:  s.Detections,
		ProcessedMs: s.ProcessedMs,
	})
	return nil
}

func (b *Backend) batchSize() int {
	if b.cfg.Gorm.BatchSize <= 0 {
		return 500
	}
	return b.cfg.Gorm.BatchSize
}

func (b *Backend) flushInterval() time.Duration {
	if b.cfg.Gorm.FlushSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(b.cfg.Gorm.FlushSeconds) * time.Second
}

func (b *Backend) flushLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.flushInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if b.detections.Empty() && b.frameStats.Empty() {
				continue
			}
			b.flush()
		case <-b.stop:
			return
		}
	}
}

// flush drains both queues into bounded batch inserts.
func (b *Backend) flush() {
	for {
		rows := b.detections.DrainUpTo(b.batchSize())
		if len(rows) == 0 {
			break
		}
		if err := b.mgr.DB.CreateInBatches(rows, b.batchSize()).Error; err != nil {
			b.log.Error().Err(err).Int("rows", len(rows)).Msg("Failed to write detections")
		}
	}
	for {
		rows := b.frameStats.DrainUpTo(b.batchSize())
		if len(rows) == 0 {
			break
		}
		if err := b.mgr.DB.CreateInBatches(rows, b.batchSize()).Error; err != nil {
			b.log.Error().Err(err).Int("rows", len(rows)).Msg("Failed to write frame stats")
		}
	}
}

// cornersJSON encodes the four corner points as a JSON array of [x, y]
// pairs in detection order.
func cornersJSON(corners [4]core.Point) (datatypes.JSON, error) {
	pairs := make([][2]float64, 0, 4)
	for _, c := range corners {
		pairs = append(pairs, [2]float64{c.X, c.Y})
	}
	raw, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode corners: %w", err)
	}
	return datatypes.JSON(raw), nil
}
