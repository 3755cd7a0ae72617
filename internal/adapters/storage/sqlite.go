package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
)

// SQLiteAdapter implements ports.Storage using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// ScanModel is the GORM model for scans.
type ScanModel struct {
	ID                 string `gorm:"primaryKey"`
	Target             string
	CreatedAt          time.Time
	EnrichmentComplete bool

	Findings []FindingModel `gorm:"foreignKey:ScanID"`
}

// FindingModel is the GORM model for findings.
type FindingModel struct {
	ID             string `gorm:"primaryKey"`
	ScanID         string `gorm:"index"`
	Host           string
	Port           int
	ServiceName    string
	ServiceVersion string
	CVEID          string `gorm:"column:cve_id"`
	Confidence     string
}

// VulnerabilityModel is the GORM model for stored vulnerability records.
type VulnerabilityModel struct {
	ID          string `gorm:"primaryKey"`
	Title       string
	Description string
	CVSSScore   float64
	Published   time.Time
	UpdatedAt   time.Time
}

// NewSQLiteAdapter initializes the database and migrates the schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// Query spans end up on the same trace as the HTTP handler's
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	// Auto Migrate
	if err := db.AutoMigrate(&ScanModel{}, &FindingModel{}, &VulnerabilityModel{}); err != nil {
		return nil, err
	}

	// Create Indices for Performance
	db.Exec("CREATE INDEX IF NOT EXISTS idx_finding_models_cve_id ON finding_models(cve_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_scan_models_created_at ON scan_models(created_at)")

	return &SQLiteAdapter{db: db}, nil
}

// CreateScan stores a new scan row.
func (a *SQLiteAdapter) CreateScan(ctx context.Context, scan domain.Scan) error {
	model := toScanModel(scan)
	return a.db.WithContext(ctx).Create(&model).Error
}

// GetScan retrieves a scan by id.
func (a *SQLiteAdapter) GetScan(ctx context.Context, scanID string) (*domain.Scan, error) {
	var model ScanModel
	if err := a.db.WithContext(ctx).First(&model, "id = ?", scanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	scan := toScan(model)
	return &scan, nil
}

// SetEnrichmentComplete stamps the scan's enrichment gate. Re-stamping an
// already complete scan succeeds.
func (a *SQLiteAdapter) SetEnrichmentComplete(ctx context.Context, scanID string) error {
	res := a.db.WithContext(ctx).Model(&ScanModel{}).
		Where("id = ?", scanID).
		Update("enrichment_complete", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// CreateFindings stores the scan's findings in one transaction.
func (a *SQLiteAdapter) CreateFindings(ctx context.Context, findings []domain.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	models := make([]FindingModel, len(findings))
	for i, f := range findings {
		models[i] = toFindingModel(f)
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(models, 100).Error
	})
}

// GetFindings returns the scan's findings in stable host/port order.
func (a *SQLiteAdapter) GetFindings(ctx context.Context, scanID string) ([]domain.Finding, error) {
	var models []FindingModel
	if err := a.db.WithContext(ctx).
		Where("scan_id = ?", scanID).
		Order("host, port").
		Find(&models).Error; err != nil {
		return nil, err
	}

	findings := make([]domain.Finding, len(models))
	for i, m := range models {
		findings[i] = toFinding(m)
	}
	return findings, nil
}

// LinkVulnerability writes the finding's cve_id and confidence tier.
func (a *SQLiteAdapter) LinkVulnerability(ctx context.Context, findingID, cveID string, confidence domain.Confidence) error {
	res := a.db.WithContext(ctx).Model(&FindingModel{}).
		Where("id = ?", findingID).
		Updates(map[string]interface{}{
			"cve_id":     cveID,
			"confidence": string(confidence),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// UpsertVulnerability inserts or overwrites a vulnerability record.
func (a *SQLiteAdapter) UpsertVulnerability(ctx context.Context, rec domain.VulnerabilityRecord) error {
	model := toVulnerabilityModel(rec)
	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
}

// GetVulnerability retrieves a stored vulnerability record by id.
func (a *SQLiteAdapter) GetVulnerability(ctx context.Context, id string) (*domain.VulnerabilityRecord, error) {
	var model VulnerabilityModel
	if err := a.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	rec := toVulnerability(model)
	return &rec, nil
}

// Ping verifies the database connection is alive.
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var _ ports.Storage = (*SQLiteAdapter)(nil)
