package history

import (
	"context"
	"time"

	"github.com/advanliempt/homebridge-hue/internal/config"
	"github.com/advanliempt/homebridge-hue/internal/core/domain"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	measurement    = "accessory_history"
	connectTimeout = 10 * time.Second
)

// Writer accepts history points. api.WriteAPI satisfies it.
type Writer interface {
	WritePoint(point *write.Point)
	Flush()
}

type InfluxWriter struct {
	client influxdb2.Client
	Writer
}

// Connect checks the server is reachable and returns a batching writer for
// the configured bucket. Write errors are logged.
func Connect(cfg config.HistoryConfig, logger *zap.Logger) (*InfluxWriter, error) {
	client := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetBatchSize(50).SetFlushInterval(10_000))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, "influxdb ping failed")
	}
	if !healthy {
		client.Close()
		return nil, errors.New("influxdb server not healthy")
	}

	writeAPI := client.WriteAPI(cfg.InfluxOrg, cfg.InfluxBucket)
	go func() {
		for err := range writeAPI.Errors() {
			logger.Error("history: write failed", zap.Error(err))
		}
	}()
	return &InfluxWriter{client: client, Writer: writeAPI}, nil
}

func (w *InfluxWriter) Close() {
	w.Flush()
	w.client.Close()
}

// EntryToPoint maps a history entry to one point, tagged with accessory and
// category.
func EntryToPoint(entry domain.HistoryEntry) *write.Point {
	fields := make(map[string]any, len(entry.Fields))
	for k, v := range entry.Fields {
		fields[k] = v
	}
	return write.NewPoint(
		measurement,
		map[string]string{
			"accessory": entry.Accessory,
			"category":  string(entry.Category),
		},
		fields,
		entry.Time,
	)
}
