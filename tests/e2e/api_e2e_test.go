package e2e

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/farmlog/internal/db"
	"github.com/farmlog/internal/router"
	"github.com/farmlog/internal/service"
)

type e2eSuite struct {
	handler   http.Handler
	anon      httpClient
	admin     httpClient
	baseURL   string
	uploadDir string
	adminPass string
	user      db.User
	cow       *db.Animal
	ewe       *db.Animal
	checkup   *db.HealthRecord
	weighing  *db.FarmEvent
	feedBill  *db.Transaction
	vet       *db.Contact
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler, withJar bool) *localClient {
	var jar http.CookieJar
	if withJar {
		if j, err := cookiejar.New(nil); err == nil {
			jar = j
		}
	}
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

func TestE2E_AllInterfaces(t *testing.T) {
	suite := newE2ESuite(t)
	suite.login(t)

	t.Run("public endpoints", suite.testPublicEndpoints)
	t.Run("farm pages", suite.testFarmPages)
	suite.login(t) // 确保后续 API 测试有有效会话
	t.Run("farm apis", suite.testFarmAPIs)
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.User{},
		&db.Profile{},
		&db.Animal{},
		&db.WeightRecord{},
		&db.HealthRecord{},
		&db.FarmEvent{},
		&db.Transaction{},
		&db.Alert{},
		&db.Contact{},
		&db.ActivityLog{},
		&db.SystemSetting{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	db.DB = gdb

	hashed, err := bcrypt.GenerateFromPassword([]byte("e2e-secret"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := db.User{Username: "admin", Password: string(hashed)}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	animalSvc := service.NewAnimalService(db.DB)
	cow, err := animalSvc.Create(service.AnimalInput{
		TagNumber: "E2E-NIU-001",
		Name:      "大黄",
		Species:   db.SpeciesCattle,
		Breed:     "西门塔尔牛",
		Sex:       db.SexFemale,
		WeightKg:  420,
		Notes:     "## 基础母牛\n性情温顺。",
	})
	if err != nil {
		t.Fatalf("failed to seed cow: %v", err)
	}

	ewe, err := animalSvc.Create(service.AnimalInput{
		TagNumber: "E2E-YANG-001",
		Name:      "雪球",
		Species:   db.SpeciesSheep,
		Sex:       db.SexFemale,
		WeightKg:  48,
	})
	if err != nil {
		t.Fatalf("failed to seed ewe: %v", err)
	}

	weightSvc := service.NewWeightService(db.DB)
	if _, err := weightSvc.Record(service.WeightInput{
		AnimalID:   cow.ID,
		MeasuredOn: time.Now().AddDate(0, -1, 0),
		WeightKg:   415,
		Note:       "月度称重",
	}); err != nil {
		t.Fatalf("failed to seed weight record: %v", err)
	}

	healthSvc := service.NewHealthService(db.DB)
	due := time.Now().AddDate(0, 0, 3)
	checkup, err := healthSvc.Create(service.HealthInput{
		AnimalID:    cow.ID,
		RecordType:  db.HealthTypeVaccination,
		Title:       "口蹄疫免疫",
		VetName:     "王兽医",
		Medicine:    "口蹄疫O型灭活苗",
		Cost:        35,
		RecordDate:  time.Now().AddDate(0, 0, -30),
		NextDueDate: &due,
	})
	if err != nil {
		t.Fatalf("failed to seed health record: %v", err)
	}

	eventSvc := service.NewEventService(db.DB)
	weighing, err := eventSvc.Create(service.EventInput{
		Title:     "全群月度称重",
		EventType: db.EventTypeWeighing,
		StartDate: time.Now().AddDate(0, 0, 2),
		Location:  "称重通道",
	})
	if err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}

	financeSvc := service.NewFinanceService(db.DB)
	feedBill, err := financeSvc.Create(service.TransactionInput{
		TransactionType: db.TransactionTypeExpense,
		Category:        db.TransactionCategoryFeed,
		Amount:          2600,
		OccurredOn:      time.Now().AddDate(0, 0, -2),
		Counterparty:    "顺发饲料行",
	})
	if err != nil {
		t.Fatalf("failed to seed transaction: %v", err)
	}
	if _, err := financeSvc.Create(service.TransactionInput{
		TransactionType: db.TransactionTypeIncome,
		Category:        db.TransactionCategoryProduceSale,
		Amount:          4200,
		OccurredOn:      time.Now().AddDate(0, 0, -1),
		Counterparty:    "鲜奶合作社",
	}); err != nil {
		t.Fatalf("failed to seed income: %v", err)
	}

	contactSvc := service.NewContactService(db.DB)
	vet, err := contactSvc.Create(service.ContactInput{
		Kind:  db.ContactKindVet,
		Name:  "王兽医",
		Phone: "13800001111",
	})
	if err != nil {
		t.Fatalf("failed to seed contact: %v", err)
	}

	uploadDir := t.TempDir()
	engine := router.SetupRouter("test-session-secret", uploadDir, "/uploads", "../../web/template/admin/*.html")

	return &e2eSuite{
		handler:   engine,
		anon:      newLocalClient(engine, false),
		admin:     newLocalClient(engine, true),
		baseURL:   "http://example.test",
		uploadDir: uploadDir,
		adminPass: "e2e-secret",
		user:      user,
		cow:       cow,
		ewe:       ewe,
		checkup:   checkup,
		weighing:  weighing,
		feedBill:  feedBill,
		vet:       vet,
	}
}

func (s *e2eSuite) login(t *testing.T) {
	t.Helper()
	form := url.Values{
		"username": {s.user.Username},
		"password": {s.adminPass},
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/farm/login", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("failed to create login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.admin.Do(req)
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound && resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed, status %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testPublicEndpoints(t *testing.T) {
	t.Helper()

	resp := s.mustRequest(t, s.anon, http.MethodGet, "/ping", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ping: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "pong") {
		t.Fatalf("ping: unexpected body %q", body)
	}

	resp = s.mustRequest(t, s.anon, http.MethodGet, "/healthz", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, `"status":"ok"`) {
		t.Fatalf("healthz: unexpected body %q", body)
	}

	resp = s.mustRequest(t, s.anon, http.MethodGet, "/", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("root: expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/farm/dashboard" {
		t.Fatalf("root: unexpected redirect %q", loc)
	}

	resp = s.mustRequest(t, s.anon, http.MethodGet, "/farm/login", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login page: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "牧场管理后台") {
		t.Fatalf("login page: missing heading")
	}

	resp = s.mustRequest(t, s.anon, http.MethodGet, "/farm/register", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register page: expected 200, got %d", resp.StatusCode)
	}

	// 未登录访问受保护页面跳转到登录页
	resp = s.mustRequest(t, s.anon, http.MethodGet, "/farm/dashboard", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("anonymous dashboard: expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/farm/login" {
		t.Fatalf("anonymous dashboard: unexpected redirect %q", loc)
	}

	resp = s.mustRequest(t, s.anon, http.MethodGet, "/farm/api/animals", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("anonymous api: expected 302, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testFarmPages(t *testing.T) {
	t.Helper()
	needs200 := []string{
		"/farm/dashboard",
		"/farm/animals",
		"/farm/animals/new",
		"/farm/animals/" + idStr(s.cow.ID),
		"/farm/animals/" + idStr(s.cow.ID) + "/edit",
		"/farm/health",
		"/farm/events",
		"/farm/finance",
		"/farm/alerts",
		"/farm/contacts",
		"/farm/profile",
		"/farm/settings",
	}

	for _, path := range needs200 {
		resp := s.mustRequest(t, s.admin, http.MethodGet, path, nil, nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s expected 200, got %d", path, resp.StatusCode)
		}
	}

	resp := s.mustRequest(t, s.admin, http.MethodGet, "/farm/animals/"+idStr(s.cow.ID), nil, nil)
	defer resp.Body.Close()
	if body := readBody(t, resp); !strings.Contains(body, s.cow.TagNumber) {
		t.Fatalf("animal detail missing tag number")
	}

	resp = s.mustRequest(t, s.admin, http.MethodGet, "/farm/logout", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("logout expected 302, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testFarmAPIs(t *testing.T) {
	t.Helper()

	var sess struct {
		User struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	s.getJSON(t, "/farm/api/session", &sess)
	if sess.User.Username != s.user.Username {
		t.Fatalf("session: expected username %q, got %q", s.user.Username, sess.User.Username)
	}

	resp := s.mustRequest(t, s.admin, http.MethodGet, "/farm/api/dashboard/overview", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard overview: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "overview") {
		t.Fatalf("dashboard overview: unexpected body %q", body)
	}

	resp = s.mustRequest(t, s.admin, http.MethodGet, "/farm/api/activities?limit=5", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activities: expected 200, got %d", resp.StatusCode)
	}

	s.runAnimalFlow(t)
	s.runHealthFlow(t)
	s.runEventFlow(t)
	s.runFinanceFlow(t)
	s.runAlertFlow(t)
	s.runContactFlow(t)
	s.runProfileAndSettingsFlow(t)
	s.runUploadFlow(t)
}

func (s *e2eSuite) runAnimalFlow(t *testing.T) {
	t.Helper()

	var created struct {
		Animal struct {
			ID        uint   `json:"id"`
			TagNumber string `json:"tag_number"`
			Status    string `json:"status"`
		} `json:"animal"`
	}
	resp := s.jsonRequest(t, http.MethodPost, "/farm/api/animals", map[string]interface{}{
		"tag_number": "e2e-zhu-001",
		"name":       "小花",
		"species":    db.SpeciesPig,
		"sex":        db.SexFemale,
		"birth_date": dateStr(time.Now().AddDate(0, -8, 0)),
		"weight_kg":  88.5,
		"notes":      "e2e 测试用猪",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create animal: expected 201, got %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &created)
	if created.Animal.ID == 0 {
		t.Fatalf("create animal: missing id")
	}
	if created.Animal.TagNumber != "E2E-ZHU-001" {
		t.Fatalf("create animal: tag number not normalized, got %q", created.Animal.TagNumber)
	}
	if created.Animal.Status != db.AnimalStatusActive {
		t.Fatalf("create animal: expected active status, got %q", created.Animal.Status)
	}
	pigID := created.Animal.ID

	var listed struct {
		Animals []struct {
			ID uint `json:"id"`
		} `json:"animals"`
		Total int64 `json:"total"`
	}
	s.getJSON(t, "/farm/api/animals?species=pig&search=小花", &listed)
	if listed.Total < 1 || len(listed.Animals) == 0 {
		t.Fatalf("list animals: expected at least one pig, got total=%d", listed.Total)
	}

	resp = s.mustRequest(t, s.admin, http.MethodGet, "/farm/api/animals/"+idStr(pigID), nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get animal: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "E2E-ZHU-001") {
		t.Fatalf("get animal: missing tag number")
	}

	resp = s.jsonRequest(t, http.MethodPut, "/farm/api/animals/"+idStr(pigID), map[string]interface{}{
		"tag_number": "E2E-ZHU-001",
		"name":       "小花二号",
		"species":    db.SpeciesPig,
		"sex":        db.SexFemale,
		"birth_date": dateStr(time.Now().AddDate(0, -8, 0)),
		"weight_kg":  92.0,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update animal: expected 200, got %d", resp.StatusCode)
	}

	resp = s.jsonRequest(t, http.MethodPut, "/farm/api/animals/"+idStr(pigID)+"/status", map[string]string{"status": db.AnimalStatusSold})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark sold: expected 200, got %d", resp.StatusCode)
	}

	// 已售出的动物不允许再次流转
	resp = s.jsonRequest(t, http.MethodPut, "/farm/api/animals/"+idStr(pigID)+"/status", map[string]string{"status": db.AnimalStatusDeceased})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("second transition: expected 400, got %d", resp.StatusCode)
	}

	var weighed struct {
		Record struct {
			ID uint `json:"id"`
		} `json:"record"`
	}
	resp = s.jsonRequest(t, http.MethodPost, "/farm/api/animals/"+idStr(s.cow.ID)+"/weights", map[string]interface{}{
		"measured_on": dateStr(time.Now()),
		"weight_kg":   425.5,
		"note":        "复核体重",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("record weight: expected 201, got %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &weighed)
	if weighed.Record.ID == 0 {
		t.Fatalf("record weight: missing id")
	}

	var weights struct {
		Records []struct {
			ID       uint    `json:"id"`
			WeightKg float64 `json:"weight_kg"`
		} `json:"records"`
	}
	s.getJSON(t, "/farm/api/animals/"+idStr(s.cow.ID)+"/weights", &weights)
	if len(weights.Records) < 2 {
		t.Fatalf("list weights: expected at least 2 records, got %d", len(weights.Records))
	}

	resp = s.mustRequest(t, s.admin, http.MethodDelete, "/farm/api/weights/"+idStr(weighed.Record.ID), nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete weight: expected 200, got %d", resp.StatusCode)
	}

	resp = s.mustRequest(t, s.admin, http.MethodDelete, "/farm/api/animals/"+idStr(pigID), nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete animal: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "已删除") {
		t.Fatalf("delete animal: unexpected body %q", body)
	}
}

func (s *e2eSuite) runHealthFlow(t *testing.T) {
	t.Helper()

	var created struct {
		Record struct {
			ID uint `json:"id"`
		} `json:"record"`
	}
	resp := s.jsonRequest(t, http.MethodPost, "/farm/api/health-records", map[string]interface{}{
		"animal_id":     s.ewe.ID,
		"record_type":   db.HealthTypeDeworming,
		"title":         "春季驱虫",
		"medicine":      "伊维菌素",
		"cost":          12.5,
		"record_date":   dateStr(time.Now().AddDate(0, 0, -1)),
		"next_due_date": dateStr(time.Now().AddDate(0, 0, 2)),
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create health record: expected 201, got %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &created)
	if created.Record.ID == 0 {
		t.Fatalf("create health record: missing id")
	}

	var listed struct {
		Records []struct {
			ID uint `json:"id"`
		} `json:"records"`
	}
	s.getJSON(t, "/farm/api/health-records?animal_id="+idStr(s.ewe.ID), &listed)
	if len(listed.Records) == 0 {
		t.Fatalf("list health records: expected records for ewe")
	}

	var due struct {
		DueSoon []struct {
			ID uint `json:"id"`
		} `json:"due_soon"`
		Overdue []struct {
			ID uint `json:"id"`
		} `json:"overdue"`
	}
	s.getJSON(t, "/farm/api/health-records/due", &due)
	if len(due.DueSoon) == 0 {
		t.Fatalf("health due: expected due_soon entries")
	}

	resp = s.jsonRequest(t, http.MethodPut, "/farm/api/health-records/"+idStr(created.Record.ID), map[string]interface{}{
		"animal_id":   s.ewe.ID,
		"record_type": db.HealthTypeDeworming,
		"title":       "春季驱虫（复核）",
		"medicine":    "伊维菌素",
		"cost":        13.0,
		"record_date": dateStr(time.Now().AddDate(0, 0, -1)),
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update health record: expected 200, got %d", resp.StatusCode)
	}

	resp = s.mustRequest(t, s.admin, http.MethodDelete, "/farm/api/health-records/"+idStr(created.Record.ID), nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete health record: expected 200, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) runEventFlow(t *testing.T) {
	t.Helper()

	var created struct {
		Event struct {
			ID     uint   `json:"id"`
			Status string `json:"status"`
		} `json:"event"`
	}
	resp := s.jsonRequest(t, http.MethodPost, "/farm/api/events", map[string]interface{}{
		"title":      "修缮北侧围栏",
		"event_type": db.EventTypeMaintenance,
		"start_date": dateStr(time.Now().AddDate(0, 0, 1)),
		"location":   "北侧围栏",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create event: expected 201, got %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &created)
	if created.Event.ID == 0 || created.Event.Status != db.EventStatusScheduled {
		t.Fatalf("create event: unexpected payload %+v", created.Event)
	}

	var upcoming struct {
		Events []struct {
			ID uint `json:"id"`
		} `json:"events"`
	}
	s.getJSON(t, "/farm/api/events/upcoming?days=7", &upcoming)
	if len(upcoming.Events) == 0 {
		t.Fatalf("upcoming events: expected entries")
	}

	resp = s.mustRequest(t, s.admin, http.MethodPut, "/farm/api/events/"+idStr(created.Event.ID)+"/complete", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete event: expected 200, got %d", resp.StatusCode)
	}

	// 已完成的事件不能再取消
	resp = s.mustRequest(t, s.admin, http.MethodPut, "/farm/api/events/"+idStr(created.Event.ID)+"/cancel", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("cancel completed event: expected 400, got %d", resp.StatusCode)
	}

	resp = s.mustRequest(t, s.admin, http.MethodDelete, "/farm/api/events/"+idStr(created.Event.ID), nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete event: expected 200, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) runFinanceFlow(t *testing.T) {
	t.Helper()

	var created struct {
		Transaction struct {
			ID uint `json:"id"`
		} `json:"transaction"`
	}
	resp := s.jsonRequest(t, http.MethodPost, "/farm/api/transactions", map[string]interface{}{
		"transaction_type": db.TransactionTypeIncome,
		"category":         db.TransactionCategoryLivestockSale,
		"amount":           6800.0,
		"occurred_on":      dateStr(time.Now()),
		"counterparty":     "县屠宰场",
		"animal_id":        s.cow.ID,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create transaction: expected 201, got %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &created)
	if created.Transaction.ID == 0 {
		t.Fatalf("create transaction: missing id")
	}

	var listed struct {
		Transactions []struct {
			ID uint `json:"id"`
		} `json:"transactions"`
	}
	s.getJSON(t, "/farm/api/transactions?type=income", &listed)
	if len(listed.Transactions) < 2 {
		t.Fatalf("list transactions: expected at least 2 income rows, got %d", len(listed.Transactions))
	}

	resp = s.mustRequest(t, s.admin, http.MethodGet, "/farm/api/finance/summary", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("finance summary: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "current_month") {
		t.Fatalf("finance summary: unexpected body %q", body)
	}

	resp = s.mustRequest(t, s.admin, http.MethodGet, "/farm/api/finance/breakdown?type=expense", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("finance breakdown: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "breakdown") {
		t.Fatalf("finance breakdown: unexpected body %q", body)
	}

	resp = s.mustRequest(t, s.admin, http.MethodGet, "/farm/api/finance/breakdown?type=transfer", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("finance breakdown invalid type: expected 400, got %d", resp.StatusCode)
	}

	resp = s.jsonRequest(t, http.MethodPut, "/farm/api/transactions/"+idStr(created.Transaction.ID), map[string]interface{}{
		"transaction_type": db.TransactionTypeIncome,
		"category":         db.TransactionCategoryLivestockSale,
		"amount":           7000.0,
		"occurred_on":      dateStr(time.Now()),
		"counterparty":     "县屠宰场",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update transaction: expected 200, got %d", resp.StatusCode)
	}

	resp = s.mustRequest(t, s.admin, http.MethodDelete, "/farm/api/transactions/"+idStr(created.Transaction.ID), nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete transaction: expected 200, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) runAlertFlow(t *testing.T) {
	t.Helper()

	var created struct {
		Alert struct {
			ID uint `json:"id"`
		} `json:"alert"`
	}
	resp := s.jsonRequest(t, http.MethodPost, "/farm/api/alerts", map[string]interface{}{
		"title":    "检查饮水器",
		"message":  "三号棚饮水器漏水，尽快更换密封圈",
		"severity": db.AlertSeverityWarning,
		"due_date": dateStr(time.Now().AddDate(0, 0, 1)),
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create alert: expected 201, got %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &created)
	if created.Alert.ID == 0 {
		t.Fatalf("create alert: missing id")
	}

	var unread struct {
		Count int64 `json:"count"`
	}
	s.getJSON(t, "/farm/api/alerts/unread-count", &unread)
	if unread.Count < 1 {
		t.Fatalf("unread count: expected at least 1, got %d", unread.Count)
	}

	resp = s.mustRequest(t, s.admin, http.MethodPut, "/farm/api/alerts/"+idStr(created.Alert.ID)+"/read", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark alert read: expected 200, got %d", resp.StatusCode)
	}

	// 种子数据里的疫苗复检在提前期内，刷新应生成到期提醒
	resp = s.mustRequest(t, s.admin, http.MethodPost, "/farm/api/alerts/generate", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate alerts: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "processed") {
		t.Fatalf("generate alerts: unexpected body %q", body)
	}

	var generated struct {
		Alerts []struct {
			ID     uint   `json:"id"`
			Source string `json:"source"`
		} `json:"alerts"`
	}
	s.getJSON(t, "/farm/api/alerts?unread=1", &generated)
	if len(generated.Alerts) == 0 {
		t.Fatalf("list unread alerts: expected generated entries")
	}

	resp = s.mustRequest(t, s.admin, http.MethodPut, "/farm/api/alerts/read-all", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("read all alerts: expected 200, got %d", resp.StatusCode)
	}

	s.getJSON(t, "/farm/api/alerts/unread-count", &unread)
	if unread.Count != 0 {
		t.Fatalf("unread count after read-all: expected 0, got %d", unread.Count)
	}

	resp = s.mustRequest(t, s.admin, http.MethodDelete, "/farm/api/alerts/"+idStr(created.Alert.ID), nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete alert: expected 200, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) runContactFlow(t *testing.T) {
	t.Helper()

	var created struct {
		Contact struct {
			ID uint `json:"id"`
		} `json:"contact"`
	}
	resp := s.jsonRequest(t, http.MethodPost, "/farm/api/contacts", map[string]interface{}{
		"kind":    db.ContactKindSupplier,
		"name":    "顺发饲料行",
		"phone":   "13900002222",
		"company": "顺发农资有限公司",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create contact: expected 201, got %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &created)
	if created.Contact.ID == 0 {
		t.Fatalf("create contact: missing id")
	}

	resp = s.jsonRequest(t, http.MethodPut, "/farm/api/contacts/"+idStr(created.Contact.ID), map[string]interface{}{
		"kind":    db.ContactKindSupplier,
		"name":    "顺发饲料行",
		"phone":   "13900003333",
		"company": "顺发农资有限公司",
		"visible": false,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update contact: expected 200, got %d", resp.StatusCode)
	}

	resp = s.jsonRequest(t, http.MethodPut, "/farm/api/contacts/reorder", map[string]interface{}{
		"ids": []uint{created.Contact.ID, s.vet.ID},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reorder contacts: expected 200, got %d", resp.StatusCode)
	}

	var listed struct {
		Contacts []struct {
			ID uint `json:"id"`
		} `json:"contacts"`
	}
	s.getJSON(t, "/farm/api/contacts?all=1", &listed)
	if len(listed.Contacts) < 2 {
		t.Fatalf("list contacts: expected at least 2, got %d", len(listed.Contacts))
	}

	resp = s.mustRequest(t, s.admin, http.MethodDelete, "/farm/api/contacts/"+idStr(created.Contact.ID), nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete contact: expected 200, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) runProfileAndSettingsFlow(t *testing.T) {
	t.Helper()

	resp := s.mustRequest(t, s.admin, http.MethodGet, "/farm/api/profile", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get profile: expected 200, got %d", resp.StatusCode)
	}

	resp = s.jsonRequest(t, http.MethodPut, "/farm/api/profile", map[string]interface{}{
		"display_name": "青山农场主",
		"phone":        "13800001234",
		"bio":          "经营家庭牧场十余年。",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update profile: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "青山农场主") {
		t.Fatalf("update profile: display name missing from response")
	}

	resp = s.mustRequest(t, s.admin, http.MethodGet, "/farm/api/settings", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get settings: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "settings") {
		t.Fatalf("get settings: unexpected body %q", body)
	}

	resp = s.jsonRequest(t, http.MethodPut, "/farm/api/settings", map[string]interface{}{
		"farm_name":       "E2E 牧场",
		"currency":        "CNY",
		"alert_lead_days": 10,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update settings: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "E2E 牧场") {
		t.Fatalf("update settings: farm name missing from response")
	}
}

func (s *e2eSuite) runUploadFlow(t *testing.T) {
	t.Helper()

	body, contentType := buildTestImageForm(t)
	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/farm/api/upload/image", body)
	if err != nil {
		t.Fatalf("failed to create upload request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.admin.Do(req)
	if err != nil {
		t.Fatalf("upload request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload image: expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var uploaded struct {
		Success int `json:"success"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &uploaded)
	if uploaded.Success != 1 {
		t.Fatalf("upload image: expected success=1, got %d", uploaded.Success)
	}
	if !strings.HasPrefix(uploaded.Data.URL, "/uploads/") {
		t.Fatalf("upload image: unexpected url %q", uploaded.Data.URL)
	}
}

// buildTestImageForm 构造一张 4x4 PNG 的 multipart 表单
func buildTestImageForm(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 0x2F, G: 0x8F, B: 0x4E, A: 0xFF})
		}
	}
	var png4 bytes.Buffer
	if err := png.Encode(&png4, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="test.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create form part: %v", err)
	}
	if _, err := part.Write(png4.Bytes()); err != nil {
		t.Fatalf("failed to write image payload: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	return body, writer.FormDataContentType()
}

func (s *e2eSuite) mustRequest(t *testing.T, client httpClient, method, path string, body io.Reader, header http.Header) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		t.Fatalf("failed to create %s %s: %v", method, path, err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

func (s *e2eSuite) jsonRequest(t *testing.T, method, path string, payload interface{}) *http.Response {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload for %s %s: %v", method, path, err)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return s.mustRequest(t, s.admin, method, path, bytes.NewReader(raw), header)
}

func (s *e2eSuite) getJSON(t *testing.T, path string, out interface{}) {
	t.Helper()

	resp := s.mustRequest(t, s.admin, http.MethodGet, path, nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
	}
	decodeJSON(t, resp, out)
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(raw)
}

func dateStr(v time.Time) string {
	return v.Format("2006-01-02")
}

func idStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
