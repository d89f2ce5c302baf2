package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/markerscan/markerd/internal/dispatcher"
	"github.com/markerscan/markerd/internal/influx"
	"github.com/markerscan/markerd/pkg/core"
	"github.com/markerscan/markerd/pkg/streaming"
)

// handleFrame runs one frame through the detection pipeline and
// answers with the detections plus the active marker ids.
func (c *client) handleFrame(e dispatcher.Event) (any, error) {
	var payload streaming.FramePayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		c.sendError(fmt.Sprintf("bad frame payload: %v", err))
		return nil, nil
	}

	start := time.Now()

	img, err := decodeFrameImage(payload.Image)
	if err != nil {
		c.sendError(fmt.Sprintf("undecodable frame: %v", err))
		return nil, nil
	}

	img = downscale(img, c.srv.opts.Processing.MaxWidth, c.srv.opts.Processing.MaxHeight)

	detections, err := c.srv.opts.Detector.Detect(context.Background(), img, c.srv.opts.Holder.Get())
	if err != nil {
		c.sendError(fmt.Sprintf("detection failed: %v", err))
		return nil, nil
	}

	now := e.Timestamp
	for i := range detections {
		detections[i].Timestamp = now
		c.srv.opts.Cache.Touch(detections[i].MarkerID, now)
	}

	bounds := img.Bounds()
	stat := core.FrameStat{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Detections:  len(detections),
		ProcessedMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Timestamp:   now,
	}

	c.srv.record(detections, &stat)
	c.srv.opts.Frames.Inc()

	active := c.srv.opts.Cache.Active(now, c.srv.opts.Processing.MarkerTimeout())

	if detections == nil {
		detections = []core.Detection{}
	}
	c.sendEnvelope(streaming.TypeProcessedFrame, streaming.ProcessedFramePayload{
		Detections: detections,
		ActiveIDs:  active,
		Stat:       stat,
	})
	return nil, nil
}

// handleReload re-reads the marker file, swaps the dictionary, and
// acknowledges the client.
func (c *client) handleReload(e dispatcher.Event) (any, error) {
	count, err := c.srv.reloadDictionary()
	if err != nil {
		c.sendError(fmt.Sprintf("reload failed: %v", err))
		return nil, err
	}

	data, err := json.Marshal(streaming.AckMessage{Type: "ack", For: streaming.TypeReload})
	if err != nil {
		return nil, err
	}
	c.send(data)
	return count, nil
}

// record fans one frame's results out to the configured sinks.
func (s *Server) record(detections []core.Detection, stat *core.FrameStat) {
	if s.opts.Store != nil {
		for i := range detections {
			if err := s.opts.Store.RecordDetection(&detections[i]); err != nil {
				s.logger.Error("Failed to record detection", "marker", detections[i].MarkerID, "error", err)
			}
		}
		if err := s.opts.Store.RecordFrameStat(stat); err != nil {
			s.logger.Error("Failed to record frame stat", "error", err)
		}
	}

	if s.opts.Influx != nil {
		ctx := context.Background()
		sessionID := s.opts.Session.Get().ID
		for i := range detections {
			point := influx.DetectionPoint(sessionID, &detections[i])
			if err := s.opts.Influx.WritePoint(ctx, "detections", point); err != nil {
				s.logger.Debug("Failed to write detection point", "error", err)
			}
		}
		point := influx.FrameStatPoint(sessionID, stat)
		if err := s.opts.Influx.WritePoint(ctx, "frame_performance", point); err != nil {
			s.logger.Debug("Failed to write frame stat point", "error", err)
		}
	}
}
