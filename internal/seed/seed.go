// Package seed はFacade経由で初期ユーザーを投入する。
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hitoshi/layershowcase/internal/facade"
)

// Entry は1件の投入データ。形の検証はFacadeが行うため未解釈のまま保持する。
type Entry = map[string]any

// file はシードファイル（YAML）の形式。
//
//	users:
//	  - name: Alice Johnson
//	  - name: Bob Smith
type file struct {
	Users []Entry `yaml:"users"`
}

// Creator はシード投入に必要なFacadeの操作。
type Creator interface {
	CreateUser(ctx context.Context, input any) (facade.UserOutput, error)
}

var _ Creator = (*facade.UserFacade)(nil)

// DefaultEntries は既定の5ユーザーを返す。
func DefaultEntries() []Entry {
	names := []string{"Alice Johnson", "Bob Smith", "Charlie Davis", "Diana Prince", "Ethan Hunt"}

	entries := make([]Entry, len(names))
	for i, n := range names {
		entries[i] = Entry{"name": n}
	}
	return entries
}

// LoadFile はYAMLのシードファイルを読み込む。usersが空の場合はエラーを返す。
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	if len(f.Users) == 0 {
		return nil, errors.New("seed file contains no users")
	}
	return f.Users, nil
}

// Run はentriesを順にFacadeで作成する。
// 最初の失敗で中断し、それまでに作成したユーザーとエラーを返す。
func Run(ctx context.Context, creator Creator, entries []Entry, logger *slog.Logger) ([]facade.UserOutput, error) {
	if logger == nil {
		logger = slog.Default()
	}

	created := make([]facade.UserOutput, 0, len(entries))
	for i, e := range entries {
		u, err := creator.CreateUser(ctx, e)
		if err != nil {
			return created, fmt.Errorf("failed to seed entry %d: %w", i, err)
		}
		logger.Info("seeded user",
			slog.String("user_id", u.ID),
			slog.String("name", u.Name),
		)
		created = append(created, u)
	}

	logger.Info("seed completed", slog.Int("count", len(created)))
	return created, nil
}
