package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rigsync/backend/internal/domain"
)

// SessionRepository implements domain.SessionRepository using GORM
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *domain.ImportSession) error {
	m := sessionFromDomain(session)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	session.ID = m.ID
	return nil
}

func (r *SessionRepository) FindSession(ctx context.Context, id uuid.UUID) (*domain.ImportSession, error) {
	var m SessionModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r *SessionRepository) UpdateSession(ctx context.Context, session *domain.ImportSession) error {
	m := sessionFromDomain(session)
	// Select("*") writes zero values too; Save would insert a missing row instead
	result := r.db.WithContext(ctx).Model(&m).Select("*").Updates(&m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) ReplaceRows(ctx context.Context, sessionID uuid.UUID, rows []domain.ImportRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rowIDs := tx.Model(&RowModel{}).Select("id").Where("session_id = ?", sessionID)
		if err := tx.Where("row_id IN (?)", rowIDs).Delete(&CandidateModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete candidates: %w", err)
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&RowModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete rows: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		models := make([]RowModel, len(rows))
		for i := range rows {
			rows[i].SessionID = sessionID
			models[i] = rowFromDomain(&rows[i])
		}
		if err := tx.Create(&models).Error; err != nil {
			return translate(err)
		}
		for i := range rows {
			rows[i].ID = models[i].ID
		}
		return nil
	})
}

func (r *SessionRepository) ListRows(ctx context.Context, sessionID uuid.UUID) ([]domain.ImportRow, error) {
	var models []RowModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("row_number").
		Find(&models).Error; err != nil {
		return nil, err
	}
	rows := make([]domain.ImportRow, len(models))
	for i, m := range models {
		rows[i] = m.toDomain()
	}
	return rows, nil
}

func (r *SessionRepository) UpdateRow(ctx context.Context, row *domain.ImportRow) error {
	m := rowFromDomain(row)
	result := r.db.WithContext(ctx).Model(&m).Select("*").Updates(&m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRowNotFound
	}
	return nil
}

func (r *SessionRepository) ReplaceCandidates(ctx context.Context, rowID uuid.UUID, candidates []domain.MatchCandidate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("row_id = ?", rowID).Delete(&CandidateModel{}).Error; err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}
		models := make([]CandidateModel, len(candidates))
		for i, c := range candidates {
			models[i] = CandidateModel{
				RowID:          rowID,
				ProductID:      c.ProductID,
				IdentifierCode: c.IdentifierCode,
				Confidence:     c.Confidence,
				MatchType:      string(c.MatchType),
				Rank:           i,
			}
		}
		return tx.Create(&models).Error
	})
}

func (r *SessionRepository) ListCandidates(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID][]domain.MatchCandidate, error) {
	var models []CandidateModel
	err := r.db.WithContext(ctx).
		Joins("JOIN import_rows ON import_rows.id = match_candidates.row_id").
		Where("import_rows.session_id = ?", sessionID).
		Order("match_candidates.row_id, match_candidates.rank").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID][]domain.MatchCandidate)
	for _, m := range models {
		out[m.RowID] = append(out[m.RowID], m.toDomain())
	}
	return out, nil
}
