package db

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// 行级隔离与约束的声明式 SQL。AutoMigrate 建出的唯一索引已覆盖
// 投票去重，这里补充数据库侧的保险：值约束 + 状态约束 + RLS 策略。
// 应用层无论如何都会过滤作用域，RLS 只是托管库下的第二道防线，
// 非 superuser 环境下策略建不上也不影响运行。
var policyStatements = []string{
	`ALTER TABLE votes ADD CONSTRAINT chk_votes_value CHECK (value IN (-1, 1))`,
	`ALTER TABLE attribution_requests ADD CONSTRAINT chk_requests_status CHECK (status IN ('open', 'solved', 'closed'))`,

	`ALTER TABLE attribution_requests ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE answers ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE votes ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE comments ENABLE ROW LEVEL SECURITY`,

	`CREATE POLICY scope_isolation_requests ON attribution_requests
		USING (tenant_id = current_setting('atfinder.tenant_id', true)
		AND project_id = current_setting('atfinder.project_id', true))`,
	`CREATE POLICY scope_isolation_answers ON answers
		USING (tenant_id = current_setting('atfinder.tenant_id', true)
		AND project_id = current_setting('atfinder.project_id', true))`,
	`CREATE POLICY scope_isolation_votes ON votes
		USING (tenant_id = current_setting('atfinder.tenant_id', true)
		AND project_id = current_setting('atfinder.project_id', true))`,
	`CREATE POLICY scope_isolation_comments ON comments
		USING (tenant_id = current_setting('atfinder.tenant_id', true)
		AND project_id = current_setting('atfinder.project_id', true))`,
}

// ApplyPolicies 应用约束和隔离策略，重复执行会因已存在而跳过
func ApplyPolicies(gdb *gorm.DB) {
	for _, stmt := range policyStatements {
		if err := gdb.Exec(stmt).Error; err != nil {
			// 已存在或权限不足都只记日志
			log.Debug().Err(err).Msg("policy statement skipped")
		}
	}
	log.Info().Msg("Database policies applied")
}

// TableExists 探测表是否已建出，供 cmd/schema 的检查报告使用
func TableExists(gdb *gorm.DB, name string) (bool, error) {
	var count int64
	err := gdb.Raw(
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = ?`,
		name,
	).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("probe table %s: %w", name, err)
	}
	return count > 0, nil
}

// Tables 此服务拥有的全部表
var Tables = []string{"attribution_requests", "answers", "votes", "comments"}
