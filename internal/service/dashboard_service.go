package service

import (
	"fmt"
	"math"

	"github.com/farmlog/internal/db"
	"gorm.io/gorm"
)

// 仪表盘固定展示未来 7 天的待办事件
const dashboardEventWindowDays = 7

// 仪表盘动态条数
const dashboardActivityLimit = 8

// DashboardService 负责聚合仪表盘总览数据
// 所有数字按请求时点实时计算，不做缓存
type DashboardService struct {
	db         *gorm.DB
	health     *HealthService
	events     *EventService
	finance    *FinanceService
	alerts     *AlertService
	activities *ActivityService
}

// SpeciesShare 描述在养牲畜中单一物种的占比。
type SpeciesShare struct {
	Species string
	Count   int64
	Percent float64
}

// DashboardOverview 汇总仪表盘一屏展示的全部数据。
type DashboardOverview struct {
	AnimalTotal    int64
	ActiveCount    int64
	SoldCount      int64
	DeceasedCount  int64
	SpeciesShares  []SpeciesShare
	HealthDueSoon  int
	HealthOverdue  int
	UpcomingEvents []db.FarmEvent
	MonthTotals    FinanceTotals
	UnreadAlerts   int64
	RecentActivity []db.ActivityLog
	AlertLeadDays  int
}

// NewDashboardService 构造 DashboardService
func NewDashboardService(gdb *gorm.DB) *DashboardService {
	return &DashboardService{
		db:         gdb,
		health:     NewHealthService(gdb),
		events:     NewEventService(gdb),
		finance:    NewFinanceService(gdb),
		alerts:     NewAlertService(gdb),
		activities: NewActivityService(gdb),
	}
}

// Overview 汇总牲畜、健康、事件、收支与提醒的总览数据。
// leadDays 为健康到期的提前量，来自系统设置。
func (s *DashboardService) Overview(leadDays int) (DashboardOverview, error) {
	overview := DashboardOverview{AlertLeadDays: leadDays}

	// 按状态统计牲畜数量
	var statusRows []struct {
		Status string
		Count  int64
	}
	if err := s.db.Model(&db.Animal{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return overview, fmt.Errorf("count animals by status: %w", err)
	}
	for _, row := range statusRows {
		overview.AnimalTotal += row.Count
		switch row.Status {
		case db.AnimalStatusActive:
			overview.ActiveCount = row.Count
		case db.AnimalStatusSold:
			overview.SoldCount = row.Count
		case db.AnimalStatusDeceased:
			overview.DeceasedCount = row.Count
		}
	}

	// 在养牲畜按物种占比
	var speciesRows []struct {
		Species string
		Count   int64
	}
	if err := s.db.Model(&db.Animal{}).
		Where("status = ?", db.AnimalStatusActive).
		Select("species, COUNT(*) AS count").
		Group("species").
		Order("count DESC").
		Scan(&speciesRows).Error; err != nil {
		return overview, fmt.Errorf("count animals by species: %w", err)
	}
	for _, row := range speciesRows {
		share := SpeciesShare{Species: row.Species, Count: row.Count}
		if overview.ActiveCount > 0 {
			share.Percent = math.Round(float64(row.Count)/float64(overview.ActiveCount)*1000) / 10
		}
		overview.SpeciesShares = append(overview.SpeciesShares, share)
	}

	dueSoon, err := s.health.DueSoon(leadDays)
	if err != nil {
		return overview, err
	}
	overview.HealthDueSoon = len(dueSoon)

	overdue, err := s.health.Overdue()
	if err != nil {
		return overview, err
	}
	overview.HealthOverdue = len(overdue)

	upcoming, err := s.events.Upcoming(dashboardEventWindowDays)
	if err != nil {
		return overview, err
	}
	overview.UpcomingEvents = upcoming

	totals, err := s.finance.CurrentMonthTotals()
	if err != nil {
		return overview, err
	}
	overview.MonthTotals = totals

	unread, err := s.alerts.UnreadCount()
	if err != nil {
		return overview, err
	}
	overview.UnreadAlerts = unread

	activity, err := s.activities.ListRecent(dashboardActivityLimit)
	if err != nil {
		return overview, err
	}
	overview.RecentActivity = activity

	return overview, nil
}
