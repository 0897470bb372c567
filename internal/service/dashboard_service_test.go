package service

import (
	"testing"
	"time"

	"github.com/farmlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDashboardTestDB(t *testing.T) (*DashboardService, func()) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.User{},
		&db.Animal{},
		&db.HealthRecord{},
		&db.FarmEvent{},
		&db.Transaction{},
		&db.Alert{},
		&db.ActivityLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return NewDashboardService(gdb), func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestDashboardServiceOverview(t *testing.T) {
	svc, cleanup := setupDashboardTestDB(t)
	defer cleanup()

	animals := []db.Animal{
		{TagNumber: "O-001", Species: db.SpeciesCattle, Status: db.AnimalStatusActive},
		{TagNumber: "O-002", Species: db.SpeciesCattle, Status: db.AnimalStatusActive},
		{TagNumber: "O-003", Species: db.SpeciesSheep, Status: db.AnimalStatusActive},
		{TagNumber: "O-004", Species: db.SpeciesPig, Status: db.AnimalStatusSold},
		{TagNumber: "O-005", Species: db.SpeciesGoat, Status: db.AnimalStatusDeceased},
	}
	for i := range animals {
		if err := db.DB.Create(&animals[i]).Error; err != nil {
			t.Fatalf("failed to seed animal: %v", err)
		}
	}

	now := time.Now()
	dueSoon := now.AddDate(0, 0, 3)
	pastDue := now.AddDate(0, 0, -10)
	records := []db.HealthRecord{
		{AnimalID: animals[0].ID, RecordType: db.HealthTypeVaccination, Title: "口蹄疫疫苗", RecordDate: now.AddDate(0, -2, 0), NextDueDate: &dueSoon},
		{AnimalID: animals[1].ID, RecordType: db.HealthTypeDeworming, Title: "春季驱虫", RecordDate: now.AddDate(0, -2, 0), NextDueDate: &pastDue},
	}
	for i := range records {
		if err := db.DB.Create(&records[i]).Error; err != nil {
			t.Fatalf("failed to seed health record: %v", err)
		}
	}

	events := []db.FarmEvent{
		{Title: "后天称重", EventType: db.EventTypeWeighing, StartDate: now.AddDate(0, 0, 2), Status: db.EventStatusScheduled},
		{Title: "下月剪毛", EventType: db.EventTypeShearing, StartDate: now.AddDate(0, 1, 0), Status: db.EventStatusScheduled},
		{Title: "昨天完成的维护", EventType: db.EventTypeMaintenance, StartDate: now.AddDate(0, 0, -1), Status: db.EventStatusCompleted},
	}
	for i := range events {
		if err := db.DB.Create(&events[i]).Error; err != nil {
			t.Fatalf("failed to seed event: %v", err)
		}
	}

	monthStart := monthStart(now)
	transactions := []db.Transaction{
		{TransactionType: db.TransactionTypeIncome, Category: db.TransactionCategoryProduceSale, Amount: 100, OccurredOn: monthStart},
		{TransactionType: db.TransactionTypeExpense, Category: db.TransactionCategoryFeed, Amount: 40, OccurredOn: monthStart},
	}
	for i := range transactions {
		if err := db.DB.Create(&transactions[i]).Error; err != nil {
			t.Fatalf("failed to seed transaction: %v", err)
		}
	}

	alerts := []db.Alert{
		{Title: "未读提醒一", Source: db.AlertSourceManual, Reference: "ref-1"},
		{Title: "未读提醒二", Source: db.AlertSourceManual, Reference: "ref-2"},
		{Title: "已读提醒", Source: db.AlertSourceManual, Reference: "ref-3", IsRead: true},
	}
	for i := range alerts {
		if err := db.DB.Create(&alerts[i]).Error; err != nil {
			t.Fatalf("failed to seed alert: %v", err)
		}
	}

	user := db.User{Username: "farmer", Password: "hashed"}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	activity := NewActivityService(db.DB)
	activity.Record(user.ID, db.ActivityEntityAnimal, animals[0].ID, db.ActivityActionCreate, "新建档案")
	activity.Record(user.ID, db.ActivityEntityEvent, events[0].ID, db.ActivityActionCreate, "新建事件")

	overview, err := svc.Overview(7)
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}

	if overview.AnimalTotal != 5 {
		t.Fatalf("expected 5 animals, got %d", overview.AnimalTotal)
	}
	if overview.ActiveCount != 3 || overview.SoldCount != 1 || overview.DeceasedCount != 1 {
		t.Fatalf("unexpected status counts: %+v", overview)
	}

	if len(overview.SpeciesShares) != 2 {
		t.Fatalf("expected 2 species shares, got %d", len(overview.SpeciesShares))
	}
	if overview.SpeciesShares[0].Species != db.SpeciesCattle || overview.SpeciesShares[0].Count != 2 {
		t.Fatalf("unexpected top species: %+v", overview.SpeciesShares[0])
	}
	if overview.SpeciesShares[0].Percent != 66.7 {
		t.Fatalf("expected cattle share 66.7, got %v", overview.SpeciesShares[0].Percent)
	}

	if overview.HealthDueSoon != 1 {
		t.Fatalf("expected 1 due soon record, got %d", overview.HealthDueSoon)
	}
	if overview.HealthOverdue != 1 {
		t.Fatalf("expected 1 overdue record, got %d", overview.HealthOverdue)
	}

	if len(overview.UpcomingEvents) != 1 || overview.UpcomingEvents[0].Title != "后天称重" {
		t.Fatalf("unexpected upcoming events: %+v", overview.UpcomingEvents)
	}

	if overview.MonthTotals.Income != 100 || overview.MonthTotals.Expense != 40 || overview.MonthTotals.Net != 60 {
		t.Fatalf("unexpected month totals: %+v", overview.MonthTotals)
	}

	if overview.UnreadAlerts != 2 {
		t.Fatalf("expected 2 unread alerts, got %d", overview.UnreadAlerts)
	}

	if len(overview.RecentActivity) != 2 {
		t.Fatalf("expected 2 activity entries, got %d", len(overview.RecentActivity))
	}
}

func TestDashboardServiceOverviewEmpty(t *testing.T) {
	svc, cleanup := setupDashboardTestDB(t)
	defer cleanup()

	overview, err := svc.Overview(7)
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}

	if overview.AnimalTotal != 0 || overview.ActiveCount != 0 {
		t.Fatalf("expected zero animal counts, got %+v", overview)
	}
	if len(overview.SpeciesShares) != 0 {
		t.Fatalf("expected no species shares, got %+v", overview.SpeciesShares)
	}
	if overview.MonthTotals.Income != 0 || overview.MonthTotals.Expense != 0 {
		t.Fatalf("expected zero totals, got %+v", overview.MonthTotals)
	}
}
