package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/bank"
	"github.com/ledgerlens/ledgerlens/internal/observability"
	"github.com/ledgerlens/ledgerlens/internal/storage"
)

const (
	FormatXLSX    = "xlsx"
	FormatParquet = "parquet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Config struct {
	MaxAge          time.Duration
	CleanupInterval time.Duration
}

// Service owns the report lifecycle: encode a query result, archive it
// in the object store, serve downloads, and sweep expired files.
type Service struct {
	Store  storage.ObjectStore
	Config Config
	Logger *slog.Logger
	Clock  func() time.Time

	defaultsOnce sync.Once
}

type GenerateInput struct {
	Question  string
	Result    bank.QueryResult
	Format    string
	ChartType string
}

type Report struct {
	Filename    string    `json:"filename"`
	Key         string    `json:"key"`
	Size        int64     `json:"size_bytes"`
	GeneratedAt time.Time `json:"generated_at"`
}

type CleanupSummary struct {
	Scanned  int `json:"scanned"`
	Deleted  int `json:"deleted"`
	Failures int `json:"failures"`
}

func (s *Service) Generate(ctx context.Context, in GenerateInput) (Report, error) {
	s.ensureDefaults()
	if s.Store == nil {
		return Report{}, fmt.Errorf("object store is required")
	}

	format := strings.ToLower(strings.TrimSpace(in.Format))
	if format == "" {
		format = FormatXLSX
	}

	var (
		data        []byte
		contentType string
		err         error
	)
	switch format {
	case FormatXLSX:
		data, err = EncodeXLSX(in.Result, in.ChartType)
		contentType = xlsxContentType
	case FormatParquet:
		data, err = EncodeParquet(in.Result)
		contentType = "application/octet-stream"
	default:
		return Report{}, fmt.Errorf("unsupported report format %q", in.Format)
	}
	if err != nil {
		return Report{}, fmt.Errorf("encode %s report: %w", format, err)
	}

	now := s.Clock()
	filename := fmt.Sprintf("bank_report_%s.%s", now.UTC().Format("20060102_150405"), format)
	key, err := storage.BuildReportKey(now, filename)
	if err != nil {
		return Report{}, err
	}

	info, err := s.Store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{ContentType: contentType})
	if err != nil {
		return Report{}, fmt.Errorf("store report: %w", err)
	}

	observability.ObserveReportGenerated(format)
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "report generated",
			slog.String("filename", filename),
			slog.String("format", format),
			slog.Int64("size_bytes", info.Size),
		)
	}
	return Report{Filename: filename, Key: key, Size: info.Size, GeneratedAt: now.UTC()}, nil
}

func (s *Service) List(ctx context.Context) ([]Report, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	objects, err := s.Store.List(ctx, "reports/")
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(objects))
	for _, object := range objects {
		reports = append(reports, Report{
			Filename:    path.Base(object.Key),
			Key:         object.Key,
			Size:        object.Size,
			GeneratedAt: object.LastModified.UTC(),
		})
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].GeneratedAt.After(reports[j].GeneratedAt)
	})
	return reports, nil
}

// Open finds a stored report by filename and returns its contents.
// Filenames are unique because generation embeds a timestamp.
func (s *Service) Open(ctx context.Context, filename string) (io.ReadCloser, Report, error) {
	if err := storage.ValidateReportFilename(filename); err != nil {
		return nil, Report{}, err
	}
	reports, err := s.List(ctx)
	if err != nil {
		return nil, Report{}, err
	}
	for _, item := range reports {
		if item.Filename != filename {
			continue
		}
		reader, err := s.Store.Get(ctx, item.Key)
		if err != nil {
			return nil, Report{}, err
		}
		return reader, item, nil
	}
	return nil, Report{}, storage.ErrObjectNotFound
}

func (s *Service) RunCleanupOnce(ctx context.Context) (CleanupSummary, error) {
	s.ensureDefaults()
	if s.Store == nil {
		return CleanupSummary{}, fmt.Errorf("object store is required")
	}

	cutoff := s.Clock().Add(-s.Config.MaxAge)
	objects, err := s.Store.List(ctx, "reports/")
	if err != nil {
		return CleanupSummary{}, err
	}

	summary := CleanupSummary{Scanned: len(objects)}
	for _, object := range objects {
		if !object.LastModified.Before(cutoff) {
			continue
		}
		if err := s.Store.Delete(ctx, object.Key); err != nil {
			summary.Failures++
			if s.Logger != nil {
				s.Logger.ErrorContext(ctx, "failed to delete expired report",
					slog.String("key", object.Key),
					slog.Any("error", err),
				)
			}
			continue
		}
		summary.Deleted++
	}

	observability.AddReportsDeleted(summary.Deleted)
	if summary.Failures > 0 {
		return summary, fmt.Errorf("%d report deletions failed", summary.Failures)
	}
	return summary, nil
}

func (s *Service) Run(ctx context.Context) error {
	s.ensureDefaults()

	ticker := time.NewTicker(s.Config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			summary, err := s.RunCleanupOnce(ctx)
			if err != nil {
				if s.Logger != nil {
					s.Logger.ErrorContext(ctx, "report cleanup cycle failed", slog.Any("error", err), slog.Any("summary", summary))
				}
				continue
			}
			if s.Logger != nil {
				s.Logger.InfoContext(ctx, "report cleanup cycle completed", slog.Any("summary", summary))
			}
		}
	}
}

// ensureDefaults resolves missing configuration exactly once. Generate,
// RunCleanupOnce, and the Run loop call it from separate goroutines, so
// the fields must never be rewritten after the first caller reads them.
func (s *Service) ensureDefaults() {
	s.defaultsOnce.Do(func() {
		if s.Config.MaxAge <= 0 {
			s.Config.MaxAge = 7 * 24 * time.Hour
		}
		if s.Config.CleanupInterval <= 0 {
			s.Config.CleanupInterval = 24 * time.Hour
		}
		if s.Clock == nil {
			s.Clock = func() time.Time { return time.Now().UTC() }
		}
	})
}
