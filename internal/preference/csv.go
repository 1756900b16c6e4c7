package preference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
)

// ReadCSV 读取偏好表
// 第一行为表头，之后每行第一列为人名，其余列依次为其填写的人名
func ReadCSV(r io.Reader, name string) (*domain.PreferenceTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// 读取表头
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyTable
		}
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}

	table := &domain.PreferenceTable{
		Name:    name,
		Members: make([]domain.PreferenceTableMember, 0),
	}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("读取第 %d 行失败: %w", line, err)
		}

		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		member := domain.PreferenceTableMember{
			Name:        strings.TrimSpace(row[0]),
			Preferences: make([]string, 0, len(row)-1),
		}
		for _, cell := range row[1:] {
			member.Preferences = append(member.Preferences, strings.TrimSpace(cell))
		}

		table.Members = append(table.Members, member)
	}

	if err := ValidateTable(table); err != nil {
		return nil, err
	}

	return table, nil
}
