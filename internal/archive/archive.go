// Package archive uploads guest list snapshots to S3-compatible storage.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shaadi-rsvp/shaadi/internal/csvio"
	"github.com/shaadi-rsvp/shaadi/internal/metrics"
	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/store"
)

// ErrNotConfigured is returned when no bucket or credentials are set.
var ErrNotConfigured = errors.New("archive not configured: S3 credentials missing")

// ErrNotFound is returned for an unknown archive id.
var ErrNotFound = errors.New("archive not found")

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type Config struct {
	S3     S3Config
	Prefix string
	// Interval between scheduled archives; zero disables the schedule.
	Interval time.Duration
	// RetentionDays removes older archives after each scheduled run; zero keeps all.
	RetentionDays int
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State       State      `json:"state"`
	LastArchive *time.Time `json:"last_archive,omitempty"`
	Error       string     `json:"error,omitempty"`
	InProgress  bool       `json:"in_progress"`
}

// StatusCallback is called whenever the manager state changes.
type StatusCallback func(Status)

// Manager exports the guest list as CSV and stores it in a bucket.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback

	parties  *store.PartyStore
	archives *store.ArchiveStore
	client   s3Client
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(cfg Config, ps *store.PartyStore, as *store.ArchiveStore, m *metrics.Metrics, logger *slog.Logger, callback StatusCallback) *Manager {
	mgr := &Manager{
		cfg:      cfg,
		parties:  ps,
		archives: as,
		metrics:  m,
		logger:   logger.With("component", "archive"),
		callback: callback,
		now:      time.Now,
		status:   Status{State: StateDisabled},
	}
	if cfg.S3.complete() {
		mgr.client = newS3Client(cfg.S3)
		mgr.status.State = StateIdle
	}
	return mgr
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Start begins the scheduled archive loop. It is a no-op when storage is not
// configured or no interval is set.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.status.State == StateDisabled || m.cfg.Interval <= 0 {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	interval := m.cfg.Interval
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.scheduled(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) scheduled(ctx context.Context) {
	if _, err := m.RunNow(ctx); err != nil {
		m.logger.Error("scheduled archive failed", "error", err)
	}
	if m.cfg.RetentionDays > 0 {
		if err := m.Cleanup(ctx, m.cfg.RetentionDays); err != nil {
			m.logger.Error("archive cleanup failed", "error", err)
		}
	}
}

// RunNow exports every party and uploads the CSV, returning the archive record.
func (m *Manager) RunNow(ctx context.Context) (*model.Archive, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	prefix := m.cfg.Prefix
	m.mu.RUnlock()

	if client == nil {
		return nil, ErrNotConfigured
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})

	timestamp := m.now().UTC().Format("2006-01-02T150405Z")
	filename := fmt.Sprintf("guests-%s.csv", timestamp)
	key := prefix + filename

	record, err := m.archives.Create(filename, key)
	if err != nil {
		m.fail(0, err)
		return nil, fmt.Errorf("create archive record: %w", err)
	}

	parties, err := m.parties.List()
	if err != nil {
		m.fail(record.ID, err)
		return nil, fmt.Errorf("list parties: %w", err)
	}
	var buf bytes.Buffer
	if err := csvio.Export(&buf, parties); err != nil {
		m.fail(record.ID, err)
		return nil, fmt.Errorf("export: %w", err)
	}

	if err := m.archives.UpdateStatus(record.ID, model.ArchiveStatusUploading, ""); err != nil {
		m.logger.Warn("mark archive uploading", "archive_id", record.ID, "error", err)
	}
	size := int64(buf.Len())
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		m.fail(record.ID, err)
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	if err := m.archives.UpdateCompleted(record.ID, size, len(parties)); err != nil {
		m.fail(record.ID, err)
		return nil, err
	}

	now := m.now().UTC()
	m.setStatus(Status{State: StateIdle, LastArchive: &now})
	m.record(metrics.ResultOK)
	m.logger.Info("archive uploaded", "archive_id", record.ID, "key", key, "rows", len(parties), "bytes", size)

	return m.archives.GetByID(record.ID)
}

func (m *Manager) fail(id int64, err error) {
	if id != 0 {
		if uerr := m.archives.UpdateStatus(id, model.ArchiveStatusFailed, err.Error()); uerr != nil {
			m.logger.Warn("mark archive failed", "archive_id", id, "error", uerr)
		}
	}
	m.setStatus(Status{State: StateError, Error: err.Error()})
	m.record(metrics.ResultFailed)
}

func (m *Manager) record(result string) {
	if m.metrics != nil {
		m.metrics.Archives.WithLabelValues(result).Inc()
	}
}

// Download streams a stored archive.
func (m *Manager) Download(ctx context.Context, id int64) (io.ReadCloser, *model.Archive, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, nil, ErrNotConfigured
	}

	record, err := m.archives.GetByID(id)
	if err != nil {
		return nil, nil, fmt.Errorf("get archive: %w", err)
	}
	if record == nil || record.Status != model.ArchiveStatusCompleted {
		return nil, nil, ErrNotFound
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.S3Key),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("download from s3: %w", err)
	}
	return result.Body, record, nil
}

// Cleanup deletes archives older than the retention period.
func (m *Manager) Cleanup(ctx context.Context, retentionDays int) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil
	}

	before := m.now().UTC().AddDate(0, 0, -retentionDays)
	keys, err := m.archives.DeleteOlderThan(before)
	if err != nil {
		return fmt.Errorf("delete old archives: %w", err)
	}

	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete archive object", "key", key, "error", err)
		}
	}
	return nil
}
