package main

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/farmlog/internal/config"
	"github.com/farmlog/internal/db"
	"github.com/farmlog/internal/service"
)

// 测试数据生成器
func main() {
	// 初始化数据库
	cfg := config.Load()
	if err := db.Init(db.Options{DSN: cfg.DatabaseURL, SQLitePath: cfg.DatabasePath}); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	// 创建测试用户
	createTestUsers()

	// 写入牧场设置
	createFarmSettings()

	// 创建牲畜档案及配套记录
	createTestAnimals()
	createWeightRecords()
	createHealthRecords()
	createFarmEvents()
	createTransactions()

	// 创建常用联系人
	createTestContacts()

	// 依据健康与事件计划刷新到期提醒
	refreshDueAlerts()

	fmt.Println("测试数据生成完成！")
	fmt.Println("用户: admin (密码: admin123)")
	fmt.Println("档案: 12 头牲畜，含在栏、已售出与已死亡")
	fmt.Println("记录: 称重、健康、事件、收支台账与到期提醒")
}

// 创建测试用户
func createTestUsers() {
	// 检查是否已存在用户
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，跳过创建")
		return
	}

	// 创建管理员用户
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := db.User{
		Username: "admin",
		Password: string(hashedPassword),
	}
	db.DB.Create(&admin)

	// 创建饲养员用户
	hashedPassword2, _ := bcrypt.GenerateFromPassword([]byte("worker123"), bcrypt.DefaultCost)
	worker := db.User{
		Username: "worker",
		Password: string(hashedPassword2),
	}
	db.DB.Create(&worker)

	fmt.Println("✅ 测试用户创建完成")
}

// 写入牧场设置
func createFarmSettings() {
	var count int64
	db.DB.Model(&db.SystemSetting{}).Where("key = ?", db.SettingKeyFarmName).Count(&count)
	if count > 0 {
		fmt.Println("牧场设置已存在，跳过创建")
		return
	}

	settings := service.NewSystemSettingService(db.DB)
	if _, err := settings.UpdateSettings(service.FarmSettingsInput{
		FarmName:      "青山家庭牧场",
		Currency:      "CNY",
		AlertLeadDays: 7,
	}); err != nil {
		log.Printf("写入牧场设置失败: %v", err)
		return
	}

	fmt.Println("✅ 牧场设置写入完成")
}

// 创建牲畜档案
func createTestAnimals() {
	// 清理旧档案及关联记录
	db.DB.Exec("DELETE FROM weight_records")
	db.DB.Exec("DELETE FROM health_records")
	db.DB.Exec("DELETE FROM farm_events")
	db.DB.Exec("DELETE FROM transactions")
	db.DB.Exec("DELETE FROM alerts")
	db.DB.Exec("DELETE FROM animals")

	animals := []struct {
		tag       string
		name      string
		species   string
		breed     string
		sex       string
		status    string
		ageMonths int
		weightKg  float64
		notes     string
	}{
		{"CN-NIU-001", "大黄", db.SpeciesCattle, "西门塔尔牛", db.SexFemale, db.AnimalStatusActive, 34, 452.5, "## 基础母牛\n\n- 性情温顺，易于驱赶\n- 2025 年春产犊一头"},
		{"CN-NIU-002", "二黑", db.SpeciesCattle, "安格斯牛", db.SexMale, db.AnimalStatusActive, 19, 386.0, ""},
		{"CN-NIU-003", "三花", db.SpeciesCattle, "荷斯坦奶牛", db.SexFemale, db.AnimalStatusActive, 46, 523.0, "产奶主力，日均 28 公斤。"},
		{"CN-NIU-004", "老四", db.SpeciesCattle, "本地黄牛", db.SexMale, db.AnimalStatusDeceased, 98, 0, "病亡，已按规程登记并无害化处理。"},
		{"CN-YANG-001", "雪球", db.SpeciesSheep, "小尾寒羊", db.SexFemale, db.AnimalStatusActive, 15, 48.2, ""},
		{"CN-YANG-002", "灰灰", db.SpeciesSheep, "湖羊", db.SexMale, db.AnimalStatusSold, 21, 56.0, "已出栏，售予县活畜市场。"},
		{"CN-YANG-003", "小白", db.SpeciesSheep, "小尾寒羊", db.SexFemale, db.AnimalStatusActive, 4, 18.6, ""},
		{"CN-SHAN-001", "跳跳", db.SpeciesGoat, "波尔山羊", db.SexMale, db.AnimalStatusActive, 9, 28.4, ""},
		{"CN-ZHU-001", "壮壮", db.SpeciesPig, "长白猪", db.SexMale, db.AnimalStatusActive, 6, 92.5, ""},
		{"CN-ZHU-002", "胖胖", db.SpeciesPig, "杜洛克猪", db.SexFemale, db.AnimalStatusActive, 7, 101.0, "计划下月出栏。"},
		{"CN-JI-001", "芦花群A", db.SpeciesChicken, "芦花鸡", db.SexFemale, db.AnimalStatusActive, 5, 2.1, "散养蛋鸡群抽样个体。"},
		{"CN-MA-001", "追风", db.SpeciesHorse, "蒙古马", db.SexMale, db.AnimalStatusActive, 62, 312.0, ""},
	}

	for _, data := range animals {
		birthDate := monthsAgo(data.ageMonths)
		animal := db.Animal{
			TagNumber: data.tag,
			Name:      data.name,
			Species:   data.species,
			Breed:     data.breed,
			Sex:       data.sex,
			Status:    data.status,
			BirthDate: &birthDate,
			WeightKg:  data.weightKg,
			Notes:     data.notes,
		}
		if err := db.DB.Create(&animal).Error; err != nil {
			log.Printf("创建档案失败 %s: %v", data.tag, err)
		}
	}

	fmt.Println("✅ 牲畜档案创建完成")
}

// 创建称重记录：为在栏大牲畜补三个月的月度称重曲线
func createWeightRecords() {
	var animals []db.Animal
	db.DB.Where("status = ? AND weight_kg > 100", db.AnimalStatusActive).Find(&animals)

	for _, animal := range animals {
		for i := 3; i >= 1; i-- {
			// 往前每月递减 2%，模拟持续增重
			weight := animal.WeightKg * (1 - 0.02*float64(i))
			record := db.WeightRecord{
				AnimalID:   animal.ID,
				MeasuredOn: daysAgo(30 * i),
				WeightKg:   round1(weight),
				Note:       "月度例行称重",
			}
			if err := db.DB.Create(&record).Error; err != nil {
				log.Printf("创建称重记录失败 %s: %v", animal.TagNumber, err)
			}
		}
	}

	fmt.Println("✅ 称重记录创建完成")
}

// 创建健康记录：含已完成项与临近复检的待办项
func createHealthRecords() {
	records := []struct {
		tag         string
		recordType  string
		title       string
		vetName     string
		medicine    string
		cost        float64
		daysAgo     int
		nextDueDays int // 0 表示无复检
	}{
		{"CN-NIU-001", db.HealthTypeVaccination, "口蹄疫春季免疫", "王兽医", "口蹄疫O型灭活苗", 35, 40, 140},
		{"CN-NIU-002", db.HealthTypeVaccination, "口蹄疫春季免疫", "王兽医", "口蹄疫O型灭活苗", 35, 40, 3},
		{"CN-NIU-003", db.HealthTypeCheckup, "产后常规检查", "县畜牧站", "", 80, 12, 0},
		{"CN-YANG-001", db.HealthTypeDeworming, "春季驱虫", "王兽医", "伊维菌素", 18, 25, -2},
		{"CN-ZHU-001", db.HealthTypeTreatment, "呼吸道感染治疗", "李兽医", "氟苯尼考", 120, 8, 5},
		{"CN-MA-001", db.HealthTypeSurgery, "蹄部修整", "马具师傅", "", 260, 60, 0},
	}

	for _, data := range records {
		var animal db.Animal
		if err := db.DB.Where("tag_number = ?", data.tag).First(&animal).Error; err != nil {
			continue
		}

		record := db.HealthRecord{
			AnimalID:   animal.ID,
			RecordType: data.recordType,
			Title:      data.title,
			VetName:    data.vetName,
			Medicine:   data.medicine,
			Cost:       data.cost,
			RecordDate: daysAgo(data.daysAgo),
		}
		if data.nextDueDays != 0 {
			due := daysFromNow(data.nextDueDays)
			record.NextDueDate = &due
		}
		if err := db.DB.Create(&record).Error; err != nil {
			log.Printf("创建健康记录失败 %s: %v", data.tag, err)
		}
	}

	fmt.Println("✅ 健康记录创建完成")
}

// 创建事件：覆盖已完成、已取消与未来七天内的排期
func createFarmEvents() {
	events := []struct {
		title     string
		eventType string
		tag       string
		startDays int // 相对今天的天数，负数为过去
		location  string
		status    string
	}{
		{"春季配种计划", db.EventTypeBreeding, "CN-NIU-001", -45, "一号牛舍", db.EventStatusCompleted},
		{"全群月度称重", db.EventTypeWeighing, "", -30, "称重通道", db.EventStatusCompleted},
		{"羊群剪毛", db.EventTypeShearing, "", -20, "羊圈", db.EventStatusCancelled},
		{"围栏巡检维修", db.EventTypeMaintenance, "", 2, "北侧牧区", db.EventStatusScheduled},
		{"生猪出栏装运", db.EventTypeHarvest, "CN-ZHU-002", 5, "装车台", db.EventStatusScheduled},
		{"牧草采购对接", db.EventTypeOther, "", 12, "场部办公室", db.EventStatusScheduled},
	}

	for _, data := range events {
		event := db.FarmEvent{
			Title:     data.title,
			EventType: data.eventType,
			StartDate: daysFromNow(data.startDays),
			Location:  data.location,
			Status:    data.status,
		}
		if data.tag != "" {
			var animal db.Animal
			if err := db.DB.Where("tag_number = ?", data.tag).First(&animal).Error; err == nil {
				event.AnimalID = &animal.ID
			}
		}
		if err := db.DB.Create(&event).Error; err != nil {
			log.Printf("创建事件失败 %s: %v", data.title, err)
		}
	}

	fmt.Println("✅ 事件创建完成")
}

// 创建收支台账：铺满最近六个月，便于月度汇总图表
func createTransactions() {
	transactions := []struct {
		txType       string
		category     string
		amount       float64
		daysAgo      int
		counterparty string
		tag          string
		notes        string
	}{
		{db.TransactionTypeIncome, db.TransactionCategoryLivestockSale, 6800, 10, "县活畜交易市场", "CN-YANG-002", "湖羊出栏一只"},
		{db.TransactionTypeIncome, db.TransactionCategoryProduceSale, 4200, 5, "鲜奶合作社", "", "本月鲜奶货款"},
		{db.TransactionTypeIncome, db.TransactionCategoryProduceSale, 3950, 35, "鲜奶合作社", "", ""},
		{db.TransactionTypeIncome, db.TransactionCategoryProduceSale, 4100, 66, "鲜奶合作社", "", ""},
		{db.TransactionTypeIncome, db.TransactionCategoryOther, 1500, 95, "乡农机服务队", "", "代耕服务收入"},
		{db.TransactionTypeExpense, db.TransactionCategoryFeed, 2600, 7, "顺发饲料行", "", "玉米与豆粕"},
		{db.TransactionTypeExpense, db.TransactionCategoryFeed, 2480, 38, "顺发饲料行", "", ""},
		{db.TransactionTypeExpense, db.TransactionCategoryFeed, 2550, 68, "顺发饲料行", "", ""},
		{db.TransactionTypeExpense, db.TransactionCategoryVeterinary, 548, 25, "王兽医", "CN-YANG-001", "疫苗与驱虫药"},
		{db.TransactionTypeExpense, db.TransactionCategoryEquipment, 1280, 52, "农机五金店", "", "电动剪毛机"},
		{db.TransactionTypeExpense, db.TransactionCategoryLabor, 3000, 15, "临时工结算", "", "秋收帮工三人"},
		{db.TransactionTypeExpense, db.TransactionCategoryUtilities, 420, 20, "供电所", "", "牛舍电费"},
		{db.TransactionTypeExpense, db.TransactionCategoryUtilities, 395, 80, "供电所", "", ""},
		{db.TransactionTypeExpense, db.TransactionCategoryFeed, 2700, 128, "顺发饲料行", "", ""},
		{db.TransactionTypeIncome, db.TransactionCategoryProduceSale, 3880, 126, "鲜奶合作社", "", ""},
		{db.TransactionTypeExpense, db.TransactionCategoryOther, 600, 160, "乡兽医站", "", "检疫服务费"},
	}

	for _, data := range transactions {
		tx := db.Transaction{
			TransactionType: data.txType,
			Category:        data.category,
			Amount:          data.amount,
			OccurredOn:      daysAgo(data.daysAgo),
			Counterparty:    data.counterparty,
			Notes:           data.notes,
		}
		if data.tag != "" {
			var animal db.Animal
			if err := db.DB.Where("tag_number = ?", data.tag).First(&animal).Error; err == nil {
				tx.AnimalID = &animal.ID
			}
		}
		if err := db.DB.Create(&tx).Error; err != nil {
			log.Printf("创建台账失败: %v", err)
		}
	}

	fmt.Println("✅ 收支台账创建完成")
}

// 创建常用联系人
func createTestContacts() {
	var count int64
	db.DB.Model(&db.Contact{}).Count(&count)
	if count > 0 {
		fmt.Println("联系人已存在，跳过创建")
		return
	}

	contacts := []db.Contact{
		{Kind: db.ContactKindVet, Name: "王兽医", Phone: "13800001111", Company: "镇畜牧兽医站", Note: "大牲畜免疫与治疗", Sort: 1, Visible: true},
		{Kind: db.ContactKindVet, Name: "李兽医", Phone: "13800002222", Note: "猪病专长，夜间可出诊", Sort: 2, Visible: true},
		{Kind: db.ContactKindSupplier, Name: "顺发饲料行", Phone: "0571-88880000", Company: "顺发农资有限公司", Note: "玉米豆粕月结", Sort: 3, Visible: true},
		{Kind: db.ContactKindBuyer, Name: "县活畜交易市场", Phone: "0571-66660000", Note: "周二周五开市", Sort: 4, Visible: true},
		{Kind: db.ContactKindOther, Name: "乡农机服务队", Phone: "13900003333", Sort: 5, Visible: false},
	}

	for _, contact := range contacts {
		if err := db.DB.Create(&contact).Error; err != nil {
			log.Printf("创建联系人失败 %s: %v", contact.Name, err)
		}
	}

	fmt.Println("✅ 联系人创建完成")
}

// 依据健康复检与事件排期刷新到期提醒
func refreshDueAlerts() {
	alerts := service.NewAlertService(db.DB)
	processed, err := alerts.GenerateDueAlerts(7)
	if err != nil {
		log.Printf("刷新到期提醒失败: %v", err)
		return
	}

	fmt.Printf("✅ 到期提醒刷新完成，共 %d 条\n", processed)
}

func daysAgo(days int) time.Time {
	return time.Now().AddDate(0, 0, -days)
}

func daysFromNow(days int) time.Time {
	return time.Now().AddDate(0, 0, days)
}

func monthsAgo(months int) time.Time {
	return time.Now().AddDate(0, -months, 0)
}

func round1(value float64) float64 {
	return float64(int(value*10+0.5)) / 10
}
