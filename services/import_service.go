package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/sahilchouksey/admission-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Archiver stores the raw bytes of an import for later inspection
type Archiver interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ImportService merges externally supplied hierarchy tables into the store.
// Existing entities are matched by natural key and never modified.
type ImportService struct {
	db      *gorm.DB
	archive Archiver
}

// NewImportService creates a new import service. archive may be nil.
func NewImportService(db *gorm.DB, archive Archiver) *ImportService {
	return &ImportService{
		db:      db,
		archive: archive,
	}
}

// MergeResult reports what a merge created
type MergeResult struct {
	BatchID         string       `json:"batch_id,omitempty"`
	TotalRows       int          `json:"total_rows"`
	Added           int          `json:"added"`
	NewUniversities int          `json:"new_universities"`
	NewColleges     int          `json:"new_colleges"`
	Skipped         int          `json:"skipped"`
	Warnings        []RowWarning `json:"warnings"`
	ArchiveKey      string       `json:"archive_key,omitempty"`
	Message         string       `json:"message"`
}

// ImportRequest is a raw CSV import
type ImportRequest struct {
	FileName string
	Data     []byte
	AdminID  *uint
}

// Merge reconciles the table into the hierarchy in one transaction. Only a table
// missing required columns fails as a whole; bad rows are skipped with a warning.
func (s *ImportService) Merge(ctx context.Context, table *ImportTable) (*MergeResult, error) {
	var result *MergeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = merge(tx, table)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ImportCSV parses and merges a CSV upload, recording an ImportBatch. The raw
// file is archived only once the merge has committed.
func (s *ImportService) ImportCSV(ctx context.Context, req ImportRequest) (*MergeResult, error) {
	table, err := ParseImportCSV(bytes.NewReader(req.Data))
	if err != nil {
		return nil, err
	}
	if missing := table.MissingColumns(); len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns %s: %w", strings.Join(missing, ", "), ErrMalformedInput)
	}

	batchID := uuid.New().String()

	var result *MergeResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = merge(tx, table)
		if err != nil {
			return err
		}

		warnings, err := json.Marshal(result.Warnings)
		if err != nil {
			return fmt.Errorf("encode warnings: %w", err)
		}

		batch := model.ImportBatch{
			BatchID:         batchID,
			AdminID:         req.AdminID,
			FileName:        req.FileName,
			TotalRows:       result.TotalRows,
			Added:           result.Added,
			NewUniversities: result.NewUniversities,
			NewColleges:     result.NewColleges,
			Skipped:         result.Skipped,
			Warnings:        datatypes.JSON(warnings),
		}
		if err := tx.Create(&batch).Error; err != nil {
			return storeError("record import batch", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.BatchID = batchID
	result.ArchiveKey = s.archiveUpload(ctx, batchID, req.Data)
	log.Infof("import %s (%s): %s", batchID, req.FileName, result.Message)
	return result, nil
}

// ListBatches returns one page of imports, most recent first, with the total count
func (s *ImportService) ListBatches(ctx context.Context, offset, limit int) ([]model.ImportBatch, int64, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&model.ImportBatch{}).Count(&total).Error; err != nil {
		return nil, 0, storeError("count import batches", err)
	}

	var batches []model.ImportBatch
	err := db.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&batches).Error
	if err != nil {
		return nil, 0, storeError("list import batches", err)
	}
	return batches, total, nil
}

func (s *ImportService) archiveUpload(ctx context.Context, batchID string, data []byte) string {
	if s.archive == nil {
		return ""
	}

	key := fmt.Sprintf("imports/%s/%s.csv", time.Now().UTC().Format("2006-01-02"), batchID)
	if _, err := s.archive.UploadBytes(ctx, key, data, "text/csv"); err != nil {
		log.Warnf("failed to archive import %s: %v", batchID, err)
		return ""
	}

	err := s.db.WithContext(ctx).Model(&model.ImportBatch{}).
		Where("batch_id = ?", batchID).
		Update("archive_key", key).Error
	if err != nil {
		log.Warnf("archived import %s as %s but failed to record the key: %v", batchID, key, err)
	}
	return key
}

func merge(tx *gorm.DB, table *ImportTable) (*MergeResult, error) {
	if table == nil {
		return nil, fmt.Errorf("no import table: %w", ErrMalformedInput)
	}
	if missing := table.MissingColumns(); len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns %s: %w", strings.Join(missing, ", "), ErrMalformedInput)
	}

	result := &MergeResult{
		TotalRows: len(table.Rows) + len(table.Warnings),
		Warnings:  append([]RowWarning{}, table.Warnings...),
	}
	result.Skipped = len(table.Warnings)
	importRowsTotal.WithLabelValues("skipped").Add(float64(len(table.Warnings)))

	// Load every existing university and college name once instead of per row
	var existing []model.University
	if err := tx.Preload("Colleges").Find(&existing).Error; err != nil {
		return nil, storeError("load universities", err)
	}

	universityIDs := make(map[string]uint, len(existing))
	collegeIDs := make(map[string]uint)
	for _, u := range existing {
		universityIDs[u.Name] = u.ID
		for _, c := range u.Colleges {
			collegeIDs[collegeKey(u.ID, c.Name)] = c.ID
		}
	}

	for _, row := range table.Rows {
		capacity, reason := validateRow(row)
		if reason != "" {
			log.Warnf("skipping import line %d: %s", row.Line, reason)
			result.Warnings = append(result.Warnings, RowWarning{Line: row.Line, Reason: reason})
			result.Skipped++
			importRowsTotal.WithLabelValues("skipped").Inc()
			continue
		}

		universityID, ok := universityIDs[row.University]
		if !ok {
			university := model.University{Name: row.University}
			if err := tx.Create(&university).Error; err != nil {
				return nil, storeError("create university", err)
			}
			universityID = university.ID
			universityIDs[row.University] = universityID
			result.NewUniversities++
		}

		key := collegeKey(universityID, row.College)
		collegeID, ok := collegeIDs[key]
		if !ok {
			college := model.College{UniversityID: universityID, Name: row.College}
			if err := tx.Create(&college).Error; err != nil {
				return nil, storeError("create college", err)
			}
			collegeID = college.ID
			collegeIDs[key] = collegeID
			result.NewColleges++
		}

		var departments []model.Department
		err := tx.Select("id").
			Where("college_id = ? AND name = ?", collegeID, row.Department).
			Limit(1).
			Find(&departments).Error
		if err != nil {
			return nil, storeError("find department", err)
		}
		if len(departments) > 0 {
			importRowsTotal.WithLabelValues("existing").Inc()
			continue
		}

		department := model.Department{
			CollegeID:           collegeID,
			Name:                row.Department,
			Capacity:            capacity,
			CurrentApplications: 0,
		}
		if err := tx.Create(&department).Error; err != nil {
			return nil, storeError("create department", err)
		}
		result.Added++
		importRowsTotal.WithLabelValues("added").Inc()
	}

	result.Message = fmt.Sprintf("%d universities, %d colleges, %d departments added",
		result.NewUniversities, result.NewColleges, result.Added)
	return result, nil
}

// validateRow returns the parsed capacity, or a reason the row must be skipped
func validateRow(row ImportRow) (int, string) {
	if row.University == "" || row.College == "" || row.Department == "" || row.Capacity == "" {
		return 0, "missing field"
	}
	capacity, err := strconv.Atoi(strings.TrimSpace(row.Capacity))
	if err != nil {
		return 0, fmt.Sprintf("capacity %q is not a number", row.Capacity)
	}
	if capacity < 1 {
		return 0, fmt.Sprintf("capacity %d must be positive", capacity)
	}
	return capacity, ""
}

func collegeKey(universityID uint, name string) string {
	return fmt.Sprintf("%d:%s", universityID, name)
}
