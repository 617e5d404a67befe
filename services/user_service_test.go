package services

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"mini-olympics-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()
	svc := NewUserService(db)
	app := fiber.New()
	app.Get("/users", svc.GetAllUsers)
	app.Post("/users", svc.CreateUser)
	app.Get("/users/:id", svc.GetUser)
	app.Patch("/users/:id/role", svc.UpdateRole)
	app.Post("/users/:id/reset-joker", svc.ResetJoker)
	app.Delete("/users/:id", svc.DeleteUser)
	return app
}

func TestDefaultDisplayName(t *testing.T) {
	assert.Equal(t, "Anna Kowalski", defaultDisplayName("anna.kowalski"))
	assert.Equal(t, "Anna Kowalski", defaultDisplayName("anna_kowalski"))
	assert.Equal(t, "Ben", defaultDisplayName("ben"))
}

func TestCreateUserDefaultsAndUniqueness(t *testing.T) {
	db := newTestDB(t)
	app := newUserTestApp(t, db)

	resp, body := doJSON(t, app, "POST", "/users", `{"username":"Anna.Kowalski"}`)
	require.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "anna.kowalski", body["username"], "usernames are normalized to lowercase")
	assert.Equal(t, "Anna Kowalski", body["display_name"])
	assert.Equal(t, models.RolePlayer, body["role"])

	resp, _ = doJSON(t, app, "POST", "/users", `{"username":"anna.kowalski"}`)
	assert.Equal(t, 409, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/users", `{"username":"x","role":"superuser"}`)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestUpdateRoleAndResetJoker(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "anna")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("joker_used", true).Error)
	app := newUserTestApp(t, db)

	resp, body := doJSON(t, app, "PATCH", "/users/"+user.ID+"/role", `{"role":"mini_admin"}`)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, models.RoleMiniAdmin, body["role"])

	resp, _ = doJSON(t, app, "POST", "/users/"+user.ID+"/reset-joker", "")
	require.Equal(t, 200, resp.StatusCode)
	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.False(t, reloaded.JokerUsed)
}

func TestGetUserIncludesWinStats(t *testing.T) {
	db := newTestDB(t)
	s := NewScoringService(db, DefaultScoringConfig)
	admin := seedUser(t, db, "admin")
	a := seedUser(t, db, "anna")
	b := seedUser(t, db, "ben")
	game := seedGame(t, db, "darts", models.GameTypeIndividual)
	first := seedMatch(t, db, game, admin, a, b)
	second := seedMatch(t, db, game, admin, a, b)
	_, err := s.CompleteMatch(first.ID, []string{a.ID}, "", nil)
	require.NoError(t, err)
	_, err = s.CompleteMatch(second.ID, []string{a.ID}, "", nil)
	require.NoError(t, err)

	app := newUserTestApp(t, db)
	resp, body := doJSON(t, app, "GET", "/users/"+a.ID, "")
	require.Equal(t, 200, resp.StatusCode)

	assert.EqualValues(t, 2, body["wins"])
	assert.EqualValues(t, 0, body["losses"])
	assert.EqualValues(t, 100, body["win_percentage"])
	assert.EqualValues(t, 2, body["matches_played"])

	// the roster list carries the same stats, and users without any
	// completed match show zeros
	listResp, err := app.Test(httptest.NewRequest("GET", "/users", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, listResp.StatusCode)
	raw, err := io.ReadAll(listResp.Body)
	require.NoError(t, err)
	var roster []models.UserStats
	require.NoError(t, json.Unmarshal(raw, &roster))
	require.Len(t, roster, 3)
	byName := map[string]models.UserStats{}
	for _, u := range roster {
		byName[u.Username] = u
	}
	assert.EqualValues(t, 2, byName["anna"].Wins)
	assert.EqualValues(t, 2, byName["ben"].Losses)
	assert.Zero(t, byName["admin"].Wins)
	assert.Zero(t, byName["admin"].Losses)
}

func TestDeleteUserRefusesWithParticipations(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin")
	player := seedUser(t, db, "player")
	game := seedGame(t, db, "darts", models.GameTypeIndividual)
	seedMatch(t, db, game, admin, player)
	app := newUserTestApp(t, db)

	resp, _ := doJSON(t, app, "DELETE", "/users/"+player.ID, "")
	assert.Equal(t, 409, resp.StatusCode)

	idle := seedUser(t, db, "idle")
	resp, _ = doJSON(t, app, "DELETE", "/users/"+idle.ID, "")
	assert.Equal(t, 200, resp.StatusCode)
}
