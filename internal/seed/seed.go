package seed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/preference"
)

type PreferenceTableCreator interface {
	CreatePreferenceTable(table *domain.PreferenceTable) error
}

// ImportPreferenceTable 将 CSV 文件导入为 owner 名下的偏好表
// name 为空时使用文件名（不含扩展名）作为偏好表名称
func ImportPreferenceTable(r PreferenceTableCreator, path string, name string, owner int64) (*domain.PreferenceTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	table, err := preference.ReadCSV(file, name)
	if err != nil {
		return nil, err
	}
	table.Description = "从 " + filepath.Base(path) + " 导入"
	table.CreatedBy = owner

	if err := r.CreatePreferenceTable(table); err != nil {
		return nil, fmt.Errorf("插入偏好表失败: %w", err)
	}

	slog.Info("导入偏好表完成", "id", table.ID, "name", table.Name, "members", len(table.Members))
	return table, nil
}
