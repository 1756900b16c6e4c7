package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/repository"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/seed"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var members int
	var columns int
	var file string
	var name string
	var owner string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机偏好表, 3: 导入 CSV 偏好表)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.IntVar(&members, "members", 40, "随机偏好表的人数")
	flag.IntVar(&columns, "columns", 3, "随机偏好表的偏好列数")
	flag.StringVar(&file, "file", "", "要导入的 CSV 文件路径")
	flag.StringVar(&name, "name", "", "导入后的偏好表名称，默认使用文件名")
	flag.StringVar(&owner, "owner", "", "偏好表所属用户的用户名，默认为初始管理员")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	if owner == "" {
		owner = cfg.InitialAdmin.Username
	}
	ownerID := func() (int64, bool) {
		user, err := repo.GetUserByUsername(owner)
		if err != nil {
			slog.Error("无法找到偏好表所属用户", "owner", owner, "error", err)
			return 0, false
		}
		return user.ID, true
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(user); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入用户成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 || members <= 0 || columns < 0 {
			slog.Error("请输入合法的偏好表数量、人数和列数")
		} else if id, ok := ownerID(); ok {
			cnt := n
			for i := 0; i < n; i++ {
				table := utils.GenerateRandomPreferenceTable(members, columns)
				table.CreatedBy = id
				if err := repo.CreatePreferenceTable(table); err != nil {
					slog.Error("无法插入偏好表", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入偏好表成功", slog.Int("count", n-cnt))
		}
	case 3:
		if file == "" {
			slog.Error("请使用 -file 指定要导入的 CSV 文件")
			return
		}

		id, ok := ownerID()
		if !ok {
			return
		}
		if _, err := seed.ImportPreferenceTable(repo, file, name, id); err != nil {
			slog.Error("无法导入偏好表", slog.String("error", err.Error()))
		}
	default:
		slog.Error("指定的操作非法")
	}
}
