package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/mdkeep/internal/pkg/dbutil"
	appErr "github.com/xxxsen/mdkeep/internal/pkg/errors"
)

const settingsTable = "settings"

type SettingsRepo struct {
	db *sqlx.DB
}

func NewSettingsRepo(db *sqlx.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

type settingRow struct {
	Key   string `db:"setting_key"`
	Value string `db:"setting_value"`
	Mtime int64  `db:"mtime"`
}

func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	where := map[string]interface{}{"setting_key": key}
	sqlStr, args, err := builder.BuildSelect(settingsTable, where, []string{"setting_key", "setting_value", "mtime"})
	if err != nil {
		return "", err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var row settingRow
	if err := r.db.GetContext(ctx, &row, sqlStr, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErr.ErrNotFound
		}
		return "", err
	}
	return row.Value, nil
}

// Set inserts or replaces the value stored under key.
func (r *SettingsRepo) Set(ctx context.Context, key, value string, mtime int64) error {
	data := map[string]interface{}{
		"setting_key":   key,
		"setting_value": value,
		"mtime":         mtime,
	}
	sqlStr, args, err := builder.BuildReplaceInsert(settingsTable, []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *SettingsRepo) Delete(ctx context.Context, key string) error {
	where := map[string]interface{}{"setting_key": key}
	sqlStr, args, err := builder.BuildDelete(settingsTable, where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
