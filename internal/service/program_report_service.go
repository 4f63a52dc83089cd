package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akademika/obe-api/internal/dto"
	"github.com/akademika/obe-api/internal/models"
	appErrors "github.com/akademika/obe-api/pkg/errors"
)

type cohortSnapshotReader interface {
	ClassCohortScores(ctx context.Context, termIDs []string) ([]models.ClassCohortScores, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ProgramReportConfig tunes the program-wide report.
type ProgramReportConfig struct {
	Target   float64
	CacheTTL time.Duration
}

// ProgramReportService builds the program-wide attainment summary and the
// per-class CPL breakdown for a set of terms.
type ProgramReportService struct {
	snapshots cohortSnapshotReader
	catalog   cplCatalogReader
	cache     reportCache
	metrics   reportObserver
	logger    *zap.Logger
	cfg       ProgramReportConfig
}

// NewProgramReportService constructs ProgramReportService with defaults.
func NewProgramReportService(snapshots cohortSnapshotReader, catalog cplCatalogReader, cache reportCache, metrics reportObserver, logger *zap.Logger, cfg ProgramReportConfig) *ProgramReportService {
	if cfg.Target <= 0 {
		cfg.Target = 75
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramReportService{
		snapshots: snapshots,
		catalog:   catalog,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Build returns the program attainment report and whether it was served
// from cache. Classes without a linked course are skipped; the summary
// averages class scores with equal weight across the classes that produced
// a nonzero coefficient for the CPL, unlike the per-student report which
// weighs by coefficient.
func (s *ProgramReportService) Build(ctx context.Context, termIDs []string) (*dto.ProgramAttainmentReport, bool, error) {
	started := time.Now()
	report := &dto.ProgramAttainmentReport{
		TermIDs:  termIDs,
		Summary:  []dto.ProgramCPLSummary{},
		PerClass: []dto.ClassAttainmentRow{},
	}
	if len(termIDs) == 0 {
		return report, false, nil
	}

	cacheKey := s.cacheKey(termIDs)
	if s.cache != nil {
		cached := &dto.ProgramAttainmentReport{}
		if err := s.cache.Get(ctx, cacheKey, cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return cached, true, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	snapshots, err := s.snapshots.ClassCohortScores(ctx, termIDs)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohort snapshot")
	}
	catalog, err := s.catalog.ListCPL(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cpl catalog")
	}

	classScores := make(map[string][]float64)
	for _, snap := range snapshots {
		if snap.CourseID == "" {
			continue
		}

		averages := make(map[string]float64, len(snap.Scores))
		for componentID, scores := range snap.Scores {
			averages[componentID] = ComponentAverage(scores)
		}

		acc := make(map[string]*cplAccumulator)
		accumulateClassAttainment(snap.ClassSnapshot, func(componentID string) float64 {
			return averages[componentID]
		}, acc)

		row := dto.ClassAttainmentRow{
			ClassID:    snap.ClassID,
			CourseCode: snap.CourseCode,
			CourseName: snap.CourseName,
			ClassName:  snap.ClassName,
			TermID:     snap.TermID,
			Scores:     make(map[string]float64),
		}
		for code, bucket := range acc {
			if bucket.coefSum <= 0 {
				continue
			}
			score := bucket.final()
			row.Scores[code] = Round2(score)
			classScores[code] = append(classScores[code], score)
		}
		report.PerClass = append(report.PerClass, row)
	}
	sort.Slice(report.PerClass, func(i, j int) bool {
		return report.PerClass[i].ClassID < report.PerClass[j].ClassID
	})

	summary := make([]dto.ProgramCPLSummary, 0, len(catalog))
	for _, cpl := range catalog {
		row := dto.ProgramCPLSummary{Subject: cpl.Code, Target: s.cfg.Target}
		if scores := classScores[cpl.Code]; len(scores) > 0 {
			sum := 0.0
			for _, score := range scores {
				sum += score
			}
			row.Prodi = Round2(sum / float64(len(scores)))
		}
		summary = append(summary, row)
	}
	sort.Slice(summary, func(i, j int) bool { return summary[i].Subject < summary[j].Subject })
	report.Summary = summary

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache program report", zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveReportBuild("program_attainment", time.Since(started))
	}
	s.logger.Debug("program attainment report built",
		zap.Int("terms", len(termIDs)),
		zap.Int("classes", len(report.PerClass)),
	)
	return report, false, nil
}

func (s *ProgramReportService) cacheKey(termIDs []string) string {
	sorted := make([]string, len(termIDs))
	copy(sorted, termIDs)
	sort.Strings(sorted)
	return "report:program:" + strings.Join(sorted, ",")
}
