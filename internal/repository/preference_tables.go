package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
)

func (r *Repository) CreatePreferenceTable(table *domain.PreferenceTable) error {
	ctx, cancel := r.txContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO preference_tables (name, description, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`
	args := []any{table.Name, table.Description, table.CreatedBy}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&table.ID, &table.CreatedAt, &table.Version); err != nil {
		return err
	}

	if err := insertMembers(ctx, tx, table); err != nil {
		return err
	}

	return tx.Commit()
}

// insertMembers 按顺序插入成员，position 决定了排座时的下标
func insertMembers(ctx context.Context, tx *sql.Tx, table *domain.PreferenceTable) error {
	query := `
		INSERT INTO preference_table_members (preference_table_id, position, name, preferences)
		VALUES ($1, $2, $3, $4)
	`
	for i, member := range table.Members {
		preferences, err := json.Marshal(member.Preferences)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, table.ID, i, member.Name, preferences); err != nil {
			return err
		}
	}

	return nil
}

const preferenceTableSelect = `
	SELECT
		pt.id,
		pt.name,
		pt.description,
		pt.created_by,
		pt.created_at,
		pt.version,
		ptm.name,
		ptm.preferences
	FROM preference_tables pt
	LEFT JOIN preference_table_members ptm ON pt.id = ptm.preference_table_id
`

// GetAllPreferenceTables 返回 createdBy 创建的偏好表，createdBy 为 0 时返回全部
func (r *Repository) GetAllPreferenceTables(createdBy int64) ([]*domain.PreferenceTable, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := preferenceTableSelect + `
		WHERE $1::BIGINT = 0 OR pt.created_by = $1
		ORDER BY pt.id, ptm.position
	`
	rows, err := r.dbpool.QueryContext(ctx, query, createdBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPreferenceTables(rows)
}

func (r *Repository) GetPreferenceTable(id int64) (*domain.PreferenceTable, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := preferenceTableSelect + `
		WHERE pt.id = $1
		ORDER BY ptm.position
	`
	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables, err := collectPreferenceTables(rows)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, sql.ErrNoRows
	}

	return tables[0], nil
}

// collectPreferenceTables 把 LEFT JOIN 的结果按偏好表归并，要求同一偏好表的行相邻
func collectPreferenceTables(rows *sql.Rows) ([]*domain.PreferenceTable, error) {
	tables := make([]*domain.PreferenceTable, 0)
	var current *domain.PreferenceTable

	for rows.Next() {
		var (
			table       domain.PreferenceTable
			memberName  sql.NullString
			preferences []byte
		)
		dst := []any{
			&table.ID,
			&table.Name,
			&table.Description,
			&table.CreatedBy,
			&table.CreatedAt,
			&table.Version,
			&memberName,
			&preferences,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if current == nil || current.ID != table.ID {
			// 第一次查到这个偏好表
			table.Members = make([]domain.PreferenceTableMember, 0)
			current = &table
			tables = append(tables, current)
		}

		// 没有任何成员的偏好表只有一行，且成员列为 NULL
		if !memberName.Valid {
			continue
		}

		member, err := scanMember(memberName.String, preferences)
		if err != nil {
			return nil, err
		}
		current.Members = append(current.Members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tables, nil
}

func scanMember(name string, preferences []byte) (domain.PreferenceTableMember, error) {
	member := domain.PreferenceTableMember{
		Name:        name,
		Preferences: make([]string, 0),
	}
	if len(preferences) > 0 {
		if err := json.Unmarshal(preferences, &member.Preferences); err != nil {
			return member, err
		}
	}
	return member, nil
}

// UpdatePreferenceTable 更新名称、描述，并整体替换成员
func (r *Repository) UpdatePreferenceTable(table *domain.PreferenceTable) error {
	ctx, cancel := r.txContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE preference_tables
		SET
			name = $1,
			description = $2,
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`
	args := []any{table.Name, table.Description, table.ID, table.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&table.Version); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM preference_table_members WHERE preference_table_id = $1`, table.ID); err != nil {
		return err
	}

	if err := insertMembers(ctx, tx, table); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) DeletePreferenceTable(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, `DELETE FROM preference_tables WHERE id = $1`, id)
	return err
}
