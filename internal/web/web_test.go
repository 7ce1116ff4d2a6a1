package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zerbini/agrofrota/internal/auth"
	"github.com/zerbini/agrofrota/internal/bot"
	"github.com/zerbini/agrofrota/internal/clima"
	"github.com/zerbini/agrofrota/internal/db"
	"github.com/zerbini/agrofrota/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = func() time.Time {
	return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
}

type fakeClima struct{}

func (fakeClima) For(ctx context.Context, cidade, estado string) (clima.Weather, error) {
	return clima.Weather{Description: "céu limpo", Temperature: 30.0}, nil
}

func (fakeClima) TopHeadlines(ctx context.Context) ([]clima.Article, error) {
	return []clima.Article{{Title: "Safra recorde no cerrado", URL: "https://noticias.example/1"}}, nil
}

func (fakeClima) Estados(ctx context.Context) ([]clima.Estado, error) {
	return []clima.Estado{{ID: 31, Sigla: "MG", Nome: "Minas Gerais"}}, nil
}

func (fakeClima) Municipios(ctx context.Context, uf string) ([]clima.Municipio, error) {
	return []clima.Municipio{{ID: 3170206, Nome: "Uberlândia"}}, nil
}

type fakeRunner struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRunner) Run(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeReports struct {
	mu   sync.Mutex
	sent []uint
}

func (f *fakeReports) BuildPDF(gerenteID uint) ([]byte, error) {
	return []byte("%PDF-fake"), nil
}

func (f *fakeReports) SendToManager(ctx context.Context, gerenteID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, gerenteID)
	return nil
}

type fakeInbound struct {
	mu  sync.Mutex
	got []bot.Inbound
}

func (f *fakeInbound) HandleInbound(ctx context.Context, in bot.Inbound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, in)
	return nil
}

type fakeSpeaker struct{}

func (fakeSpeaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return []byte("mp3"), nil
}

type testEnv struct {
	server    *Server
	db        *gorm.DB
	auth      *auth.Service
	generator *fakeRunner
	assigner  *fakeRunner
	reports   *fakeReports
	inbound   *fakeInbound
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	authSvc, err := auth.NewService("segredo-de-teste", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		db:        gdb,
		auth:      authSvc,
		generator: &fakeRunner{},
		assigner:  &fakeRunner{},
		reports:   &fakeReports{},
		inbound:   &fakeInbound{},
	}
	env.server, err = New(Opts{
		DB:        gdb,
		Auth:      authSvc,
		Clima:     fakeClima{},
		Generator: env.generator,
		Assigner:  env.assigner,
		Reports:   env.reports,
		Inbound:   env.inbound,
		Speaker:   fakeSpeaker{},
		Now:       testNow,
	})
	if err != nil {
		t.Fatal(err)
	}
	return env
}

// createUser registers a user directly and returns it with its session cookie.
func (env *testEnv) createUser(t *testing.T, username string) (models.User, *http.Cookie) {
	t.Helper()
	hash, err := env.auth.HashPassword("senha123")
	if err != nil {
		t.Fatal(err)
	}
	user := models.User{
		Username: username, PasswordHash: hash, FullName: "Seu Zé",
		Cidade: "Uberlândia", Estado: "MG",
	}
	if err := env.db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	token, err := env.auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		t.Fatal(err)
	}
	return user, &http.Cookie{Name: sessionCookie, Value: token}
}

func (env *testEnv) request(t *testing.T, method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	env.server.Router().ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/register", url.Values{
		"username": {"fazendeiro"},
		"password": {"senha123"},
	}, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("register status = %d body=%s", w.Code, w.Body.String())
	}
	var user models.User
	if err := env.db.Where("username = ?", "fazendeiro").First(&user).Error; err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.PasswordHash == "senha123" {
		t.Fatal("password stored in plaintext")
	}

	w = env.request(t, http.MethodPost, "/login", url.Values{
		"username": {"fazendeiro"},
		"password": {"senha123"},
	}, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("login status = %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("redirect = %q", loc)
	}
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("session cookie not set on login")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "fazendeiro")

	w := env.request(t, http.MethodPost, "/login", url.Values{
		"username": {"fazendeiro"},
		"password": {"errada"},
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Credenciais inválidas!") {
		t.Error("missing invalid-credentials message")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "fazendeiro")

	w := env.request(t, http.MethodPost, "/register", url.Values{
		"username": {"fazendeiro"},
		"password": {"outra"},
	}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Usuário já existe!") {
		t.Error("missing duplicate-user message")
	}
}

func TestRequireAuth_RedirectsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/dashboard", "/maquinas", "/pessoas_auxiliares", "/dados_pessoais"} {
		w := env.request(t, http.MethodGet, path, nil, nil)
		if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
			t.Errorf("%s: status=%d location=%q", path, w.Code, w.Header().Get("Location"))
		}
	}
}

func TestDashboard_ShowsWeatherNewsAndTasks(t *testing.T) {
	env := newTestEnv(t)
	user, cookie := env.createUser(t, "fazendeiro")

	driver := models.Person{UserID: user.ID, Name: "João", Email: "j@f.br", Celular: "349", Role: models.RoleMotorista}
	if err := env.db.Create(&driver).Error; err != nil {
		t.Fatal(err)
	}
	machine := models.Machine{UserID: user.ID, DriverID: &driver.ID, Model: "6110J", SerialNumber: "SN"}
	if err := env.db.Create(&machine).Error; err != nil {
		t.Fatal(err)
	}
	a := models.TaskAssignment{DriverID: driver.ID, Date: testNow().Format(models.DateLayout)}
	if err := env.db.Create(&a).Error; err != nil {
		t.Fatal(err)
	}
	item := models.TaskItem{AssignmentID: a.ID, Task: "Verificar óleo", Status: models.StatusPendente}
	if err := env.db.Create(&item).Error; err != nil {
		t.Fatal(err)
	}

	w := env.request(t, http.MethodGet, "/dashboard", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"céu limpo", "Safra recorde no cerrado", "Verificar óleo", "João"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestDashboard_MissingLocation(t *testing.T) {
	env := newTestEnv(t)
	user, cookie := env.createUser(t, "fazendeiro")
	if err := env.db.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{"cidade": "", "estado": ""}).Error; err != nil {
		t.Fatal(err)
	}

	w := env.request(t, http.MethodGet, "/dashboard", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ainda não cadastrou sua localização") {
		t.Error("missing location prompt not rendered")
	}
}

func TestMachineCreate(t *testing.T) {
	env := newTestEnv(t)
	user, cookie := env.createUser(t, "fazendeiro")

	w := env.request(t, http.MethodPost, "/maquinas", url.Values{
		"model":         {"6110J"},
		"serial_number": {"SN-10"},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d", w.Code)
	}
	var machine models.Machine
	if err := env.db.Where("user_id = ?", user.ID).First(&machine).Error; err != nil {
		t.Fatalf("machine not created: %v", err)
	}
	if machine.Model != "6110J" || machine.SerialNumber != "SN-10" {
		t.Errorf("machine = %+v", machine)
	}
}

func TestMachineCreate_RejectsUnknownModel(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.createUser(t, "fazendeiro")

	env.request(t, http.MethodPost, "/maquinas", url.Values{
		"model":         {"Trator Genérico"},
		"serial_number": {"SN-10"},
	}, cookie)

	var count int64
	env.db.Model(&models.Machine{}).Count(&count)
	if count != 0 {
		t.Fatalf("machine count = %d, want 0 for unknown model", count)
	}
}

func TestMachineManagerAssignment(t *testing.T) {
	env := newTestEnv(t)
	user, cookie := env.createUser(t, "fazendeiro")
	gerente := models.Person{UserID: user.ID, Name: "Carlos", Email: "c@f.br", Celular: "341", Role: models.RoleGerente}
	if err := env.db.Create(&gerente).Error; err != nil {
		t.Fatal(err)
	}
	machine := models.Machine{UserID: user.ID, Model: "6110J", SerialNumber: "SN"}
	if err := env.db.Create(&machine).Error; err != nil {
		t.Fatal(err)
	}

	w := env.request(t, http.MethodPost, fmt.Sprintf("/maquinas/%d/gerente", machine.ID), url.Values{
		"gerente_id": {fmt.Sprint(gerente.ID)},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d", w.Code)
	}
	var mm models.MachineManager
	if err := env.db.Where("machine_id = ?", machine.ID).First(&mm).Error; err != nil {
		t.Fatalf("manager link not created: %v", err)
	}
	if mm.GerenteID != gerente.ID {
		t.Errorf("GerenteID = %d", mm.GerenteID)
	}
}

func TestPeopleReplace(t *testing.T) {
	env := newTestEnv(t)
	user, cookie := env.createUser(t, "fazendeiro")
	old := models.Person{UserID: user.ID, Name: "Antigo", Email: "a@f.br", Celular: "340", Role: models.RoleMotorista}
	if err := env.db.Create(&old).Error; err != nil {
		t.Fatal(err)
	}

	w := env.request(t, http.MethodPost, "/pessoas_auxiliares", url.Values{
		"auxiliary_name_1":    {"Maria"},
		"auxiliary_email_1":   {"maria@f.br"},
		"auxiliary_celular_1": {"34911112222"},
		"auxiliary_role_1":    {"gerente"},
		"auxiliary_name_2":    {""},
		"auxiliary_email_2":   {""},
		"auxiliary_celular_2": {""},
		"auxiliary_role_2":    {"motorista"},
	}, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d", w.Code)
	}

	var people []models.Person
	if err := env.db.Where("user_id = ?", user.ID).Find(&people).Error; err != nil {
		t.Fatal(err)
	}
	if len(people) != 1 {
		t.Fatalf("people count = %d, want 1 (old removed, blank row dropped)", len(people))
	}
	if people[0].Name != "Maria" || people[0].Role != models.RoleGerente {
		t.Errorf("person = %+v", people[0])
	}
}

func TestManualTaskTriggers(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.createUser(t, "fazendeiro")

	if w := env.request(t, http.MethodPost, "/gerar_tarefas", nil, cookie); w.Code != http.StatusFound {
		t.Fatalf("gerar_tarefas status = %d", w.Code)
	}
	if env.generator.callCount() != 1 {
		t.Errorf("generator calls = %d", env.generator.callCount())
	}
	if w := env.request(t, http.MethodPost, "/assign_tasks", nil, cookie); w.Code != http.StatusFound {
		t.Fatalf("assign_tasks status = %d", w.Code)
	}
	if env.assigner.callCount() != 1 {
		t.Errorf("assigner calls = %d", env.assigner.callCount())
	}
}

func TestSendReportAndPDF(t *testing.T) {
	env := newTestEnv(t)
	user, cookie := env.createUser(t, "fazendeiro")
	gerente := models.Person{UserID: user.ID, Name: "Carlos", Email: "c@f.br", Celular: "341", Role: models.RoleGerente}
	if err := env.db.Create(&gerente).Error; err != nil {
		t.Fatal(err)
	}

	w := env.request(t, http.MethodPost, fmt.Sprintf("/send_gerente_report/%d", gerente.ID), nil, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("send report status = %d", w.Code)
	}
	if len(env.reports.sent) != 1 || env.reports.sent[0] != gerente.ID {
		t.Errorf("sent = %v", env.reports.sent)
	}

	w = env.request(t, http.MethodGet, fmt.Sprintf("/gerar_relatorio_pdf/%d", gerente.ID), nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("pdf status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF") {
		t.Error("body is not a PDF")
	}
}

func TestSendReport_ScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	other, _ := env.createUser(t, "outro")
	gerente := models.Person{UserID: other.ID, Name: "Carlos", Email: "c@f.br", Celular: "341", Role: models.RoleGerente}
	if err := env.db.Create(&gerente).Error; err != nil {
		t.Fatal(err)
	}
	_, cookie := env.createUser(t, "fazendeiro")

	env.request(t, http.MethodPost, fmt.Sprintf("/send_gerente_report/%d", gerente.ID), nil, cookie)
	if len(env.reports.sent) != 0 {
		t.Fatal("report must not be sent for another user's manager")
	}
}

func TestTextToAudio(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.createUser(t, "fazendeiro")

	w := env.request(t, http.MethodPost, "/transformar_em_audio", url.Values{
		"text_input": {"Olá motoristas"},
	}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("content type = %q", ct)
	}
}

func TestWebhook(t *testing.T) {
	env := newTestEnv(t)

	payload := `{"update_id":1,"message":{"message_id":2,"chat":{"id":901},"text":"Tarefa 1 concluída"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
	if len(env.inbound.got) != 1 {
		t.Fatalf("inbound handled %d messages, want 1", len(env.inbound.got))
	}
	in := env.inbound.got[0]
	if in.ChatID != "901" || in.Text != "Tarefa 1 concluída" {
		t.Errorf("inbound = %+v", in)
	}
}

func TestWebhook_MalformedPayloadStillOK(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("nem json"))
	w := httptest.NewRecorder()
	env.server.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestMunicipiosAPI(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.createUser(t, "fazendeiro")

	w := env.request(t, http.MethodGet, "/api/municipios/MG", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Uberlândia") {
		t.Errorf("body = %q", w.Body.String())
	}
}
