package repository

import (
	"encoding/json"

	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
)

func (r *Repository) InsertArrangement(arrangement *domain.Arrangement) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	groups, err := json.Marshal(arrangement.Groups)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO arrangements (preference_table_id, group_size, score, generations, selector, groups, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, version
	`

	args := []any{
		arrangement.PreferenceTableID,
		arrangement.GroupSize,
		arrangement.Score,
		arrangement.Generations,
		arrangement.Selector,
		groups,
		arrangement.CreatedBy,
	}
	dst := []any{&arrangement.ID, &arrangement.CreatedAt, &arrangement.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetArrangementsByPreferenceTableID(preferenceTableID int64) ([]*domain.Arrangement, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT `+arrangementColumns+`
		FROM arrangements
		WHERE preference_table_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query, preferenceTableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	arrangements := make([]*domain.Arrangement, 0)
	for rows.Next() {
		arrangement, err := scanArrangement(rows)
		if err != nil {
			return nil, err
		}
		arrangements = append(arrangements, arrangement)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return arrangements, nil
}

// GetBestArrangementByPreferenceTableID 返回得分最高的排座结果，得分相同时返回较早的
func (r *Repository) GetBestArrangementByPreferenceTableID(preferenceTableID int64) (*domain.Arrangement, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT `+arrangementColumns+`
		FROM arrangements
		WHERE preference_table_id = $1
		ORDER BY score DESC, created_at ASC, id ASC
		LIMIT 1
	`

	return scanArrangement(r.dbpool.QueryRowContext(ctx, query, preferenceTableID))
}

func (r *Repository) GetLatestArrangementByPreferenceTableID(preferenceTableID int64) (*domain.Arrangement, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT `+arrangementColumns+`
		FROM arrangements
		WHERE preference_table_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	return scanArrangement(r.dbpool.QueryRowContext(ctx, query, preferenceTableID))
}

func (r *Repository) GetArrangementByID(id int64) (*domain.Arrangement, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT `+arrangementColumns+`
		FROM arrangements
		WHERE id = $1
	`

	return scanArrangement(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) DeleteArrangement(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		DELETE FROM arrangements WHERE id = $1
	`

	_, err := r.dbpool.ExecContext(ctx, query, id)
	return err
}

const arrangementColumns = `id, preference_table_id, group_size, score, generations, selector, groups, created_by, created_at, version`

func scanArrangement(s scanner) (*domain.Arrangement, error) {
	arrangement := &domain.Arrangement{}

	var groups []byte
	dst := []any{
		&arrangement.ID,
		&arrangement.PreferenceTableID,
		&arrangement.GroupSize,
		&arrangement.Score,
		&arrangement.Generations,
		&arrangement.Selector,
		&groups,
		&arrangement.CreatedBy,
		&arrangement.CreatedAt,
		&arrangement.Version,
	}
	if err := s.Scan(dst...); err != nil {
		return nil, err
	}

	arrangement.Groups = make([]domain.ArrangementGroup, 0)
	if len(groups) > 0 {
		if err := json.Unmarshal(groups, &arrangement.Groups); err != nil {
			return nil, err
		}
	}

	return arrangement, nil
}
