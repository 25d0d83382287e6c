package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InstrumentedStore wraps an ObjectStore and exports per-operation latency,
// failure and transfer metrics to Prometheus.
type InstrumentedStore struct {
	next ObjectStore

	duration      *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	uploadedBytes prometheus.Counter
	listedKeys    prometheus.Counter
}

// NewInstrumentedStore registers the storage metrics with reg and returns a
// store that records them around every call to next.
func NewInstrumentedStore(next ObjectStore, namespace string, reg prometheus.Registerer) (*InstrumentedStore, error) {
	if namespace == "" {
		namespace = "assetgate"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	s := &InstrumentedStore{
		next: next,
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of object store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_errors_total",
			Help:      "Count of failed object store operations.",
		}, []string{"operation"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "uploaded_bytes_total",
			Help:      "Bytes successfully written to the object store.",
		}),
		listedKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "listed_keys_total",
			Help:      "Keys returned by bucket listings.",
		}),
	}

	collectors := []prometheus.Collector{s.duration, s.errors, s.uploadedBytes, s.listedKeys}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register storage metric: %w", err)
		}
	}

	return s, nil
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	s.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		s.errors.WithLabelValues(op).Inc()
	}
}

func (s *InstrumentedStore) GetObject(ctx context.Context, bucket string, key string) (io.ReadCloser, ObjectInfo, error) {
	start := time.Now()
	rc, info, err := s.next.GetObject(ctx, bucket, key)
	s.observe("get", start, err)
	return rc, info, err
}

func (s *InstrumentedStore) PutObject(ctx context.Context, bucket string, key string, r io.Reader, size int64, contentType string) error {
	start := time.Now()
	err := s.next.PutObject(ctx, bucket, key, r, size, contentType)
	s.observe("put", start, err)
	if err == nil && size > 0 {
		s.uploadedBytes.Add(float64(size))
	}
	return err
}

func (s *InstrumentedStore) StatObject(ctx context.Context, bucket string, key string) (ObjectInfo, error) {
	start := time.Now()
	info, err := s.next.StatObject(ctx, bucket, key)
	s.observe("stat", start, err)
	return info, err
}

// ListObjects records the duration of the whole listing, measured until the
// underlying channel is closed.
func (s *InstrumentedStore) ListObjects(ctx context.Context, bucket string) <-chan ObjectInfo {
	start := time.Now()
	in := s.next.ListObjects(ctx, bucket)
	out := make(chan ObjectInfo)

	go func() {
		defer close(out)

		var err error
		for obj := range in {
			if obj.Err != nil {
				err = obj.Err
			} else {
				s.listedKeys.Inc()
			}

			select {
			case out <- obj:
			case <-ctx.Done():
				s.observe("list", start, ctx.Err())
				return
			}
		}
		s.observe("list", start, err)
	}()

	return out
}

// UploadedBytes exposes the upload counter for inspection.
func (s *InstrumentedStore) UploadedBytes() prometheus.Counter {
	return s.uploadedBytes
}

// Errors exposes the per-operation error counter for inspection.
func (s *InstrumentedStore) Errors() *prometheus.CounterVec {
	return s.errors
}
