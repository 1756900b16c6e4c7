package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/preference"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/seating"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/utils"
)

type flags struct {
	file        string
	groupSize   int
	population  int
	selection   int
	generations int
	selector    string
	seed        int64
	verbose     bool
}

func parseFlags(args []string, output io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("arrange", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&f.file, "file", "", "偏好表 CSV 文件路径，默认从标准输入读取")
	fs.IntVar(&f.groupSize, "group-size", 4, "每组人数")
	fs.IntVar(&f.population, "population", 100, "种群大小")
	fs.IntVar(&f.selection, "selection", 10, "每代选出的父代数量")
	fs.IntVar(&f.generations, "generations", 50000, "最大迭代代数")
	fs.StringVar(&f.selector, "selector", "", "选择算法 (stochastic, roulette, tournament, maximize)，默认使用配置")
	fs.Int64Var(&f.seed, "seed", 0, "随机种子，0 表示使用当前时间")
	fs.BoolVar(&f.verbose, "v", false, "输出迭代过程的调试日志")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("多余的参数: %s", strings.Join(fs.Args(), " "))
	}
	return f, nil
}

// positiveInt32 拒绝不能放进 int32 的参数，避免转换时被截断
func positiveInt32(name string, v int) (int32, error) {
	if v < 1 || v > math.MaxInt32 {
		return 0, fmt.Errorf("-%s 必须在 1 到 %d 之间，实际为 %d", name, math.MaxInt32, v)
	}
	return int32(v), nil
}

// apply 用命令行参数覆盖配置中的默认值
func (f *flags) apply(opts *seating.Options) error {
	var err error
	if opts.GroupSize, err = positiveInt32("group-size", f.groupSize); err != nil {
		return err
	}
	if opts.Parameters.PopulationSize, err = positiveInt32("population", f.population); err != nil {
		return err
	}
	if opts.SelectionCount, err = positiveInt32("selection", f.selection); err != nil {
		return err
	}
	if opts.Parameters.MaxGenerations, err = positiveInt32("generations", f.generations); err != nil {
		return err
	}
	opts.Parameters.Seed = f.seed
	if f.selector != "" {
		opts.Selector = f.selector
	}
	return nil
}

// 离线排座：从标准输入（或 -file）读取偏好表 CSV，输出分组结果和得分
func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			slog.Error("排座失败", "error", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	// 标准输出留给排座结果
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	arrangerCfg, preferenceCfg, err := config.LoadArrangerConfig()
	if err != nil {
		return fmt.Errorf("无法读取配置: %w", err)
	}

	opts := seating.OptionsFromConfig(arrangerCfg, preferenceCfg)
	if err := f.apply(&opts); err != nil {
		return err
	}

	input := stdin
	name := "stdin"
	if f.file != "" {
		file, err := os.Open(f.file)
		if err != nil {
			return fmt.Errorf("无法打开文件: %w", err)
		}
		defer file.Close()
		input = file
		name = f.file
	}

	table, err := preference.ReadCSV(input, name)
	if err != nil {
		return fmt.Errorf("无法读取偏好表: %w", err)
	}

	if err := utils.ValidateArrangerOptions(&opts, len(table.Members)); err != nil {
		return err
	}

	// CTRL+C 时停止迭代
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("开始排座", "members", len(table.Members), "groupSize", opts.GroupSize, "generations", opts.Parameters.MaxGenerations)
	arrangement, err := seating.Arrange(ctx, table, opts)
	if err != nil {
		return err
	}

	printArrangement(stdout, arrangement)
	return nil
}

// printArrangement 按组输出人名，最后一行输出得分
func printArrangement(w io.Writer, arrangement *domain.Arrangement) {
	for i, group := range arrangement.Groups {
		fmt.Fprintf(w, "第 %d 组: %s\n", i+1, strings.Join(group.Members, ", "))
	}
	fmt.Fprintf(w, "得分: %d\n", arrangement.Score)
}
