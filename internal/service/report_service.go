package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitkpi/challenge-app/internal/domain"
	"fitkpi/challenge-app/internal/engine"
	"fitkpi/challenge-app/internal/repository"
	"fitkpi/challenge-app/internal/storage"
)

var ErrReportNotFound = errors.New("report not found")

const reportContentType = "text/csv"

// GeneratedReport pairs the stored report metadata with a fresh download URL.
type GeneratedReport struct {
	Report      domain.SeasonReport `json:"report"`
	DownloadURL string              `json:"downloadUrl"`
}

// ReportService generates the season penalty CSV across all approved
// athletes and archives it in object storage.
type ReportService interface {
	Generate(ctx context.Context, generatedBy primitive.ObjectID, through time.Time) (*GeneratedReport, error)
	DownloadURL(ctx context.Context, reportID primitive.ObjectID) (*GeneratedReport, error)
	ListRecent(ctx context.Context, limit int64) ([]domain.SeasonReport, error)
}

type reportService struct {
	userRepo          repository.UserRepository
	activityRepo      repository.ActivityRepository
	eventRepo         repository.EventRepository
	participationRepo repository.ParticipationRepository
	configRepo        repository.ConfigRepository
	reportRepo        repository.ReportRepository
	storage           storage.FileStorage
	logger            *slog.Logger
}

// NewReportService creates a new instance of reportService.
func NewReportService(
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	eventRepo repository.EventRepository,
	participationRepo repository.ParticipationRepository,
	configRepo repository.ConfigRepository,
	reportRepo repository.ReportRepository,
	fileStorage storage.FileStorage,
	logger *slog.Logger,
) ReportService {
	return &reportService{
		userRepo:          userRepo,
		activityRepo:      activityRepo,
		eventRepo:         eventRepo,
		participationRepo: participationRepo,
		configRepo:        configRepo,
		reportRepo:        reportRepo,
		storage:           fileStorage,
		logger:            logger,
	}
}

// Generate computes every approved athlete's penalty history through the
// given month, writes the CSV to object storage, and records the archive
// entry. Rows are one per athlete per month plus a season-total row each.
func (s *reportService) Generate(ctx context.Context, generatedBy primitive.ObjectID, through time.Time) (*GeneratedReport, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidConfig, cfg.Timezone)
	}

	athletes, err := s.userRepo.ListAthletes(ctx, domain.StatusApproved)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"athlete", "email", "month", "penalty"}); err != nil {
		return nil, err
	}

	for i := range athletes {
		athlete := &athletes[i]
		activities, err := s.activityRepo.ListByUser(ctx, athlete.ID)
		if err != nil {
			return nil, fmt.Errorf("athlete %s: %w", athlete.ID.Hex(), err)
		}
		participations, err := s.participationRepo.ListByUser(ctx, athlete.ID)
		if err != nil {
			return nil, fmt.Errorf("athlete %s: %w", athlete.ID.Hex(), err)
		}

		in := engine.Input{
			Activities:     activities,
			Gender:         athlete.Gender,
			Events:         events,
			Participations: participations,
			Config:         *cfg,
			Location:       loc,
		}
		history, total, err := engine.History(in, through)
		if err != nil {
			return nil, fmt.Errorf("athlete %s: %w", athlete.ID.Hex(), err)
		}

		for _, m := range history {
			row := []string{athlete.Name, athlete.Email, m.MonthKey, formatAmount(m.Penalty)}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
		if err := w.Write([]string{athlete.Name, athlete.Email, "total", formatAmount(total)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	now := time.Now().In(loc)
	fileName := fmt.Sprintf("season-report-%s.csv", now.Format("2006-01-02"))
	objectKey := fmt.Sprintf("reports/%s/%s.csv", now.Format("2006/01"), uuid.NewString())

	if err := s.storage.PutObject(ctx, objectKey, reportContentType, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("archive report: %w", err)
	}

	report := &domain.SeasonReport{
		GeneratedBy: generatedBy,
		ObjectKey:   objectKey,
		FileName:    fileName,
		ContentType: reportContentType,
		Size:        int64(buf.Len()),
		Athletes:    len(athletes),
		CreatedAt:   now,
	}
	id, err := s.reportRepo.Create(ctx, report)
	if err != nil {
		return nil, err
	}
	report.ID = id

	url, err := s.storage.GeneratePresignedDownloadURL(ctx, objectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign report url: %w", err)
	}

	s.logger.Info("season report generated",
		"report", id.Hex(),
		"athletes", len(athletes),
		"bytes", buf.Len(),
	)
	return &GeneratedReport{Report: *report, DownloadURL: url}, nil
}

// DownloadURL re-presigns an archived report.
func (s *reportService) DownloadURL(ctx context.Context, reportID primitive.ObjectID) (*GeneratedReport, error) {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	url, err := s.storage.GeneratePresignedDownloadURL(ctx, report.ObjectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign report url: %w", err)
	}
	return &GeneratedReport{Report: *report, DownloadURL: url}, nil
}

func (s *reportService) ListRecent(ctx context.Context, limit int64) ([]domain.SeasonReport, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.reportRepo.ListRecent(ctx, limit)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
