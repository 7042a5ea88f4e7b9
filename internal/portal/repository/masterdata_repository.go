package repository

import (
	"context"
	"fmt"
	"regexp"

	"github.com/unichemlab/idamsLite-sub000/internal/portal/entity"
	"gorm.io/gorm"
)

// identPattern 合法的SQL标识符（表名/模块名），拼接前必须校验
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// ValidIdentifier 标识符校验
func ValidIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

// MasterDataRepository 通用主数据仓库：按表名做 create/update/delete，
// 仅供变更审批台账的落库步骤使用。
type MasterDataRepository struct {
	db *gorm.DB
}

// NewMasterDataRepository 创建主数据仓库
func NewMasterDataRepository(db *gorm.DB) *MasterDataRepository {
	return &MasterDataRepository{db: db}
}

// WithTx 绑定事务
func (r *MasterDataRepository) WithTx(tx *gorm.DB) *MasterDataRepository {
	return &MasterDataRepository{db: tx}
}

// Insert 向目标表插入一条记录
func (r *MasterDataRepository) Insert(ctx context.Context, table string, values entity.JSONB) error {
	if !ValidIdentifier(table) {
		return fmt.Errorf("%w: %q", ErrBadIdentifier, table)
	}
	if len(values) == 0 {
		return fmt.Errorf("insert into %s: empty values", table)
	}
	return r.db.WithContext(ctx).Table(table).Create(map[string]interface{}(values)).Error
}

// Update 按ID更新目标表记录
func (r *MasterDataRepository) Update(ctx context.Context, table, recordID string, values entity.JSONB) error {
	if !ValidIdentifier(table) {
		return fmt.Errorf("%w: %q", ErrBadIdentifier, table)
	}
	if len(values) == 0 {
		return fmt.Errorf("update %s: empty values", table)
	}
	res := r.db.WithContext(ctx).Table(table).
		Where("id = ?", recordID).
		Updates(map[string]interface{}(values))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 按ID删除目标表记录
func (r *MasterDataRepository) Delete(ctx context.Context, table, recordID string) error {
	if !ValidIdentifier(table) {
		return fmt.Errorf("%w: %q", ErrBadIdentifier, table)
	}
	res := r.db.WithContext(ctx).Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), recordID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
