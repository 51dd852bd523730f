package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feyndora/backend/config"
	"github.com/feyndora/backend/models"
	"github.com/feyndora/backend/services"
	"github.com/feyndora/backend/utils"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "feyndora-routes")
	if err != nil {
		panic(err)
	}
	os.Setenv("JWT_SECRET", "routes-test-secret")
	os.Setenv("REDIS_DISABLED", "true")
	os.Setenv("GIN_MODE", "test")
	os.Setenv("GIN_PATH", filepath.Join(dir, "gin.log"))
	os.Setenv("RATE_LIMIT_PER_MINUTE", "10000")
	os.Setenv("REGISTER_CAPTCHA_ENABLED", "false")
	utils.SetRedis(nil)

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type server struct {
	t  *testing.T
	db *gorm.DB
	r  *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db, models.All()...))

	engines := services.NewEngines(db, config.DefaultGamification(), services.NewClock(time.UTC))
	return &server{t: t, db: db, r: SetupRouter(db, engines)}
}

func (s *server) do(method, path string, body interface{}, token string) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (s *server) register(name string) (uint, string) {
	s.t.Helper()
	status, env := s.do(http.MethodPost, "/register", gin.H{
		"username": name,
		"email":    name + "@feyndora.test",
		"password": "s3cret-pass",
	}, "")
	require.Equal(s.t, http.StatusCreated, status, env.Message)

	var data struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.User.ID, data.Token
}

func (s *server) fund(userID uint, coins, diamonds int) {
	s.t.Helper()
	require.NoError(s.t, s.db.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"coins": coins, "diamonds": diamonds}).Error)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)

	status, env := s.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "feyndora_http_request_duration_seconds")

	status, env = s.do(http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40400, env.Code)
}

func TestRegisterLoginLogout(t *testing.T) {
	s := newServer(t)
	_, token := s.register("ada")

	status, env := s.do(http.MethodPost, "/register", gin.H{
		"username": "ada", "email": "other@feyndora.test", "password": "s3cret-pass",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40004, env.Code)

	status, env = s.do(http.MethodPost, "/register", gin.H{
		"username": "a!", "email": "bad@feyndora.test", "password": "s3cret-pass",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40002, env.Code)

	status, env = s.do(http.MethodPost, "/login", gin.H{"email": "ADA@feyndora.test", "password": "s3cret-pass"}, "")
	assert.Equal(t, http.StatusOK, status)
	status, env = s.do(http.MethodPost, "/login", gin.H{"email": "ada@feyndora.test", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40106, env.Code)

	status, _ = s.do(http.MethodGet, "/me", nil, token)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(http.MethodPost, "/logout", nil, token)
	assert.Equal(t, http.StatusOK, status)
	status, env = s.do(http.MethodGet, "/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40104, env.Code)
}

func TestAvatarRequiresOwner(t *testing.T) {
	s := newServer(t)
	ada, adaToken := s.register("ada")
	bob, _ := s.register("bob")

	status, env := s.do(http.MethodPut, fmt.Sprintf("/users/%d/avatar", bob), gin.H{"avatar": "https://cdn.feyndora.test/a.png"}, adaToken)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, 40311, env.Code)

	status, _ = s.do(http.MethodPut, fmt.Sprintf("/users/%d/avatar", ada), gin.H{"avatar": "https://cdn.feyndora.test/a.png"}, adaToken)
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(http.MethodGet, fmt.Sprintf("/users/%d", ada), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "https://cdn.feyndora.test/a.png")
}

func TestSigninEndpoints(t *testing.T) {
	s := newServer(t)
	uid, _ := s.register("ada")

	status, env := s.do(http.MethodPost, fmt.Sprintf("/signin/claim/%d", uid), nil, "")
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = s.do(http.MethodPost, fmt.Sprintf("/signin/claim/%d", uid), nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40030, env.Code)

	status, env = s.do(http.MethodGet, fmt.Sprintf("/signin/status/%d", uid), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"already_claimed_today":true`)

	status, env = s.do(http.MethodGet, "/signin/status/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40031, env.Code)

	status, env = s.do(http.MethodPost, "/signin/claim/9999", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40430, env.Code)
}

func TestQuestEndpoints(t *testing.T) {
	s := newServer(t)
	uid, _ := s.register("ada")

	status, env := s.do(http.MethodGet, fmt.Sprintf("/weekly_tasks/%d", uid), nil, "")
	require.Equal(t, http.StatusOK, status)
	var progress struct {
		WeekStart string `json:"week_start"`
		Tasks     []struct {
			ID int `json:"task_id"`
		} `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	assert.Len(t, progress.Tasks, 3)
	assert.NotEmpty(t, progress.WeekStart)

	status, env = s.do(http.MethodPost, "/claim_weekly_task", gin.H{"user_id": uid, "task_id": 2}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40041, env.Code)

	status, _ = s.do(http.MethodPost, "/learning_points", gin.H{"user_id": uid, "points": 1000}, "")
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(http.MethodPost, "/claim_weekly_task", gin.H{"user_id": uid, "task_id": 2}, "")
	assert.Equal(t, http.StatusOK, status, env.Message)

	status, env = s.do(http.MethodPost, "/claim_weekly_task", gin.H{"user_id": uid, "task_id": 0}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40041, env.Code)
	assert.Equal(t, services.ErrInvalidQuest.Error(), env.Message)

	status, env = s.do(http.MethodPost, "/claim_weekly_task", gin.H{"task_id": 1}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "user_id and task_id are required", env.Message)
}

func TestCardEndpoints(t *testing.T) {
	s := newServer(t)
	uid, _ := s.register("ada")
	require.NoError(t, s.db.Create(&[]models.Card{
		{Name: "Newton", Rarity: config.RarityEpic},
		{Name: "Faraday", Rarity: config.RarityRare},
		{Name: "Ohm", Rarity: config.RarityCommon},
	}).Error)

	status, env := s.do(http.MethodPost, fmt.Sprintf("/draw_card/%d", uid), nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40060, env.Code)

	status, env = s.do(http.MethodPost, fmt.Sprintf("/draw_card/%d?type=legendary", uid), nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40060, env.Code)

	s.fund(uid, 500, 0)
	status, env = s.do(http.MethodPost, fmt.Sprintf("/draw_card/%d?type=NORMAL", uid), nil, "")
	require.Equal(t, http.StatusOK, status, env.Message)
	var drawn struct {
		CardID         uint `json:"card_id"`
		RemainingCoins int  `json:"remaining_coins"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &drawn))
	assert.Equal(t, 0, drawn.RemainingCoins)

	status, env = s.do(http.MethodPost, "/select_teacher_card", gin.H{"user_id": uid, "card_id": drawn.CardID}, "")
	assert.Equal(t, http.StatusOK, status, env.Message)

	status, env = s.do(http.MethodGet, fmt.Sprintf("/user_cards/%d", uid), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"is_selected":true`)

	status, env = s.do(http.MethodGet, "/cards", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "Faraday")

	status, env = s.do(http.MethodPost, "/draw_card/9999", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40460, env.Code)
}

func TestAchievementEndpoints(t *testing.T) {
	s := newServer(t)
	uid, _ := s.register("ada")

	status, _ := s.do(http.MethodPost, "/learning_points", gin.H{"user_id": uid, "points": 500}, "")
	require.Equal(t, http.StatusOK, status)

	status, env := s.do(http.MethodPost, fmt.Sprintf("/check_achievements/%d", uid), nil, "")
	require.Equal(t, http.StatusOK, status)
	var checked struct {
		New []string `json:"new_achievements"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &checked))
	require.NotEmpty(t, checked.New)

	status, env = s.do(http.MethodPost, fmt.Sprintf("/claim_achievement/%d", uid), gin.H{"badge_name": checked.New[0]}, "")
	assert.Equal(t, http.StatusOK, status, env.Message)
	status, env = s.do(http.MethodPost, fmt.Sprintf("/claim_achievement/%d", uid), gin.H{"badge_name": checked.New[0]}, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40471, env.Code)

	status, env = s.do(http.MethodGet, fmt.Sprintf("/get_user_achievements/%d", uid), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), checked.New[0])
}

func TestCourseEndpoints(t *testing.T) {
	s := newServer(t)
	uid, _ := s.register("ada")

	status, env := s.do(http.MethodPost, "/courses", gin.H{"user_id": uid, "title": "<b>Optics</b>"}, "")
	require.Equal(t, http.StatusCreated, status, env.Message)
	var created struct {
		Course models.Course `json:"course"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Optics", created.Course.Title)
	courseID := created.Course.ID

	var chapterIDs []uint
	for _, title := range []string{"Reflection", "Refraction"} {
		status, env = s.do(http.MethodPost, fmt.Sprintf("/courses/%d/chapters", courseID), gin.H{"title": title}, "")
		require.Equal(t, http.StatusCreated, status, env.Message)
		var ch struct {
			Chapter models.Chapter `json:"chapter"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &ch))
		chapterIDs = append(chapterIDs, ch.Chapter.ID)
	}

	status, env = s.do(http.MethodPut, fmt.Sprintf("/chapters/%d/complete", chapterIDs[0]), nil, "")
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Contains(t, string(env.Data), `"course_progress":50`)

	status, env = s.do(http.MethodPut, "/chapters/9999/complete", nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, env = s.do(http.MethodPut, fmt.Sprintf("/courses/%d/progress", courseID), gin.H{"progress": 101}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(http.MethodPost, fmt.Sprintf("/courses/%d/reviews", courseID), gin.H{"user_id": uid, "rating": 5, "content": "clear"}, "")
	require.Equal(t, http.StatusCreated, status, env.Message)
	status, env = s.do(http.MethodGet, fmt.Sprintf("/courses/%d/reviews", courseID), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"username":"ada"`)

	status, _ = s.do(http.MethodDelete, fmt.Sprintf("/courses/%d", courseID), nil, "")
	require.Equal(t, http.StatusOK, status)
	status, _ = s.do(http.MethodGet, fmt.Sprintf("/courses/%d", courseID), nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	var chapters int64
	require.NoError(t, s.db.Model(&models.Chapter{}).Where("course_id = ?", courseID).Count(&chapters).Error)
	assert.Zero(t, chapters)
}

func TestRankingEndpoints(t *testing.T) {
	s := newServer(t)
	ada, _ := s.register("ada")
	bob, _ := s.register("bob")

	for _, entry := range []struct {
		user   uint
		points int
	}{{ada, 120}, {bob, 300}} {
		status, env := s.do(http.MethodPost, "/learning_points", gin.H{"user_id": entry.user, "points": entry.points}, "")
		require.Equal(t, http.StatusOK, status, env.Message)
	}

	status, env := s.do(http.MethodPost, "/learning_points", gin.H{"user_id": ada, "points": 0}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40080, env.Code)

	status, env = s.do(http.MethodGet, "/rankings/daily", nil, "")
	require.Equal(t, http.StatusOK, status)
	var board struct {
		Scope string `json:"scope"`
		Items []struct {
			UserID uint `json:"user_id"`
			Rank   int  `json:"rank"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &board))
	assert.Equal(t, "daily", board.Scope)
	require.Len(t, board.Items, 2)
	assert.Equal(t, bob, board.Items[0].UserID)
	assert.Equal(t, 1, board.Items[0].Rank)

	status, env = s.do(http.MethodGet, "/rankings/daily?date=2024-13-40", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40081, env.Code)

	status, env = s.do(http.MethodGet, fmt.Sprintf("/rankings/weekly/%d", ada), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"rank":2`)

	status, env = s.do(http.MethodGet, fmt.Sprintf("/rankings/monthly/%d", ada), nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40083, env.Code)

	status, env = s.do(http.MethodGet, "/stats", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"users":2`)
}
