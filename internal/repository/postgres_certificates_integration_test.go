//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cayden6ix/certidoes-app-sub002/internal/config"
	"github.com/cayden6ix/certidoes-app-sub002/internal/database"
	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// 获取测试数据库连接
func getTestDB(t *testing.T) *sql.DB {
	cfg := &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "certidoes"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil
	}

	return db
}

// 创建测试用户（certificates.user_id外键需要）
func createTestUser(t *testing.T, db *sql.DB) string {
	var userID string
	err := db.QueryRow(
		`INSERT INTO users (email, password_hash, full_name, role, status)
		 VALUES ($1, $2, $3, 'clerk', 'active')
		 ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
		 RETURNING user_id::text`,
		"integration-certs@test.local", "x", "Integration Test User",
	).Scan(&userID)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return userID
}

// 保证测试要用的状态行存在（不依赖种子迁移）
func ensureStatus(t *testing.T, db *sql.DB, name, display string) {
	_, err := db.Exec(
		`INSERT INTO certificate_statuses (status_name, display_name, can_edit_certificate, is_final)
		 VALUES ($1, $2, true, false)
		 ON CONFLICT (status_name) DO NOTHING`,
		name, display,
	)
	if err != nil {
		t.Fatalf("Failed to ensure status %s: %v", name, err)
	}
}

// 清理测试数据
func cleanupCertificatesTestData(t *testing.T, db *sql.DB, userID string) {
	// certificate_tags由外键CASCADE清理
	db.Exec(`DELETE FROM certificates WHERE user_id = $1`, userID)
	db.Exec(`DELETE FROM tags WHERE tag_name LIKE 'itest-%'`)
	db.Exec(`DELETE FROM certificate_types WHERE type_name LIKE 'Tipo Integração%'`)
	db.Exec(`DELETE FROM users WHERE user_id = $1`, userID)
}

// TestCertificatesIntegration_CRUD 证书全生命周期（真实数据库）
func TestCertificatesIntegration_CRUD(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	ensureStatus(t, db, "pending", "Pendente")
	ensureStatus(t, db, "ready", "Pronta")

	userID := createTestUser(t, db)
	defer cleanupCertificatesTestData(t, db, userID)

	logger := zap.NewNop()
	repo := NewPostgresCertificatesRepository(db, logger,
		NewTypeResolver(db, logger),
		NewStatusResolver(db, logger),
		nil)
	tagsRepo := NewPostgresTagsRepository(db)

	ctx := context.Background()

	// 准备两个标签
	tagID1, err := tagsRepo.UpsertTag(ctx, &domain.Tag{TagName: "itest-vip", Color: "#AA0000"})
	if err != nil {
		t.Fatalf("Failed to upsert tag: %v", err)
	}
	tagID2, err := tagsRepo.UpsertTag(ctx, &domain.Tag{TagName: "itest-balcao"})
	if err != nil {
		t.Fatalf("Failed to upsert tag: %v", err)
	}

	recordNumber := fmt.Sprintf("ITEST-%d", time.Now().UnixNano())
	cost := 85.5

	// 创建：类型按名即时创建，状态空走默认pending
	created, err := repo.CreateCertificate(ctx, CertificateInput{
		UserID:              userID,
		CertificateTypeName: "Tipo Integração CRUD",
		RecordNumber:        recordNumber,
		PartiesNames:        []string{"Maria Silva", "João Souza"},
		Notes:               "criado pelo teste de integração",
		Priority:            domain.PriorityUrgent,
		Cost:                &cost,
		TagIDs:              []string{tagID1, tagID2},
	})
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}
	if created.CertificateID == "" {
		t.Fatal("Expected non-empty certificate_id")
	}
	if created.CertificateTypeName != "Tipo Integração CRUD" {
		t.Errorf("Expected type name to round-trip, got %q", created.CertificateTypeName)
	}
	if created.Status == nil || created.Status.StatusName != "pending" {
		t.Errorf("Expected default pending status, got %+v", created.Status)
	}
	if created.PartiesName != "Maria Silva, João Souza" {
		t.Errorf("Unexpected parties_name: %q", created.PartiesName)
	}
	if len(created.Tags) != 2 {
		t.Errorf("Expected 2 tags, got %d", len(created.Tags))
	}
	if created.Cost == nil || *created.Cost != cost {
		t.Errorf("Expected cost %v, got %v", cost, created.Cost)
	}

	// 单个读取
	got, err := repo.GetCertificate(ctx, created.CertificateID)
	if err != nil {
		t.Fatalf("Failed to get certificate: %v", err)
	}
	if got.RecordNumber != recordNumber {
		t.Errorf("Expected record_number %q, got %q", recordNumber, got.RecordNumber)
	}

	// 列表：按用户过滤应包含刚创建的记录
	listed, total, err := repo.ListCertificates(ctx, CertificateFilters{UserID: &userID}, 10, 0)
	if err != nil {
		t.Fatalf("Failed to list certificates: %v", err)
	}
	if total < 1 {
		t.Errorf("Expected total >= 1, got %d", total)
	}
	found := false
	for _, c := range listed {
		if c.CertificateID == created.CertificateID {
			found = true
		}
	}
	if !found {
		t.Error("Created certificate missing from filtered list")
	}

	// 列表：当事人精确元素搜索
	search := "Maria Silva"
	_, searchTotal, err := repo.ListCertificates(ctx, CertificateFilters{
		UserID: &userID,
		Search: &search,
	}, 10, 0)
	if err != nil {
		t.Fatalf("Failed to search certificates: %v", err)
	}
	if searchTotal < 1 {
		t.Errorf("Expected search to find the certificate, got total %d", searchTotal)
	}

	// 更新：显式置NULL备注 + 换状态 + 清空标签
	emptyTags := []string{}
	updated, err := repo.UpdateCertificate(ctx, created.CertificateID, CertificateUpdate{
		Notes:      &sql.NullString{},
		StatusName: strPtr("ready"),
		TagIDs:     &emptyTags,
	})
	if err != nil {
		t.Fatalf("Failed to update certificate: %v", err)
	}
	if updated.Notes != "" {
		t.Errorf("Expected notes cleared, got %q", updated.Notes)
	}
	if updated.Status == nil || updated.Status.StatusName != "ready" {
		t.Errorf("Expected ready status, got %+v", updated.Status)
	}
	if len(updated.Tags) != 0 {
		t.Errorf("Expected tags cleared, got %d", len(updated.Tags))
	}

	// 删除后再取应为NOT_FOUND
	if err := repo.DeleteCertificate(ctx, created.CertificateID); err != nil {
		t.Fatalf("Failed to delete certificate: %v", err)
	}
	if _, err := repo.GetCertificate(ctx, created.CertificateID); CodeOf(err) != ErrNotFound {
		t.Errorf("Expected NOT_FOUND after delete, got %v", err)
	}
	if err := repo.DeleteCertificate(ctx, created.CertificateID); CodeOf(err) != ErrNotFound {
		t.Errorf("Expected NOT_FOUND on double delete, got %v", err)
	}
}

// TestCertificatesIntegration_TypeCreateIfMissing 类型名即时创建且幂等
func TestCertificatesIntegration_TypeCreateIfMissing(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	logger := zap.NewNop()
	resolver := NewTypeResolver(db, logger)
	ctx := context.Background()

	typeName := fmt.Sprintf("Tipo Integração %d", time.Now().UnixNano())
	defer db.Exec(`DELETE FROM certificate_types WHERE type_name = $1`, typeName)

	first, err := resolver.ResolveTypeID(ctx, typeName)
	if err != nil {
		t.Fatalf("Failed to resolve new type: %v", err)
	}
	if first == "" {
		t.Fatal("Expected non-empty type id")
	}

	// 第二次解析必须命中同一行
	second, err := resolver.ResolveTypeID(ctx, typeName)
	if err != nil {
		t.Fatalf("Failed to resolve existing type: %v", err)
	}
	if first != second {
		t.Errorf("Expected stable type id, got %q then %q", first, second)
	}

	// 大小写不敏感匹配
	upper, err := resolver.ResolveTypeID(ctx, strings.ToUpper(typeName))
	if err != nil {
		t.Fatalf("Failed to resolve type with different case: %v", err)
	}
	if upper != first {
		t.Errorf("Expected case-insensitive match, got %q vs %q", upper, first)
	}
}
