package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mini-olympics-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newMatchTestApp wires the match service behind a fiber app with the user
// context pre-set, the way the gateway middleware would.
func newMatchTestApp(t *testing.T, db *gorm.DB, currentUserID string) (*fiber.App, *MatchService) {
	t.Helper()
	scoring := NewScoringService(db, DefaultScoringConfig)
	svc := NewMatchService(db, DefaultScoringConfig, scoring)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", currentUserID)
		c.Locals("user_role", models.RoleAdmin)
		return c.Next()
	})
	app.Post("/matches", svc.CreateMatch)
	app.Get("/matches", svc.GetAllMatches)
	app.Get("/matches/participation", svc.GetParticipation)
	app.Post("/matches/:id/join", svc.JoinMatch)
	app.Delete("/matches/:id/leave", svc.LeaveMatch)
	app.Post("/matches/:id/participants", svc.AddParticipant)
	app.Patch("/matches/:id/status", svc.UpdateStatus)
	app.Post("/matches/:id/joker", svc.DeclareJoker)
	return app, svc
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestCreateMatchDefaultsAndTimeFactor(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin")
	game := seedGame(t, db, "foosball", models.GameTypeIndividual)
	require.NoError(t, db.Model(&models.Game{}).Where("id = ?", game.ID).
		Update("time_factor", 1.5).Error)
	app, _ := newMatchTestApp(t, db, admin.ID)

	resp, body := doJSON(t, app, "POST", "/matches", `{"game_id":"`+game.ID+`","time_factor":2.0}`)
	require.Equal(t, 201, resp.StatusCode)

	assert.Equal(t, models.MatchStatusPending, body["status"])
	assert.InDelta(t, 3.0, body["time_factor"], 0.001, "effective factor is match × game")
	assert.Equal(t, admin.ID, body["admin_id"])
	assert.Equal(t, admin.ID, body["mini_admin_id"], "mini-admin falls back to the creator")

	resp, _ = doJSON(t, app, "POST", "/matches", `{"game_id":"missing"}`)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestJoinRecomputesPotAndRejectsDuplicates(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin")
	player := seedUser(t, db, "player")
	game := seedGame(t, db, "foosball", models.GameTypeIndividual)
	match := seedMatch(t, db, game, admin)
	app, _ := newMatchTestApp(t, db, player.ID)

	resp, _ := doJSON(t, app, "POST", "/matches/"+match.ID+"/join", "")
	require.Equal(t, 201, resp.StatusCode)

	var reloaded models.Match
	require.NoError(t, db.First(&reloaded, "id = ?", match.ID).Error)
	assert.Equal(t, int64(40), reloaded.Pot, "pot tracks the participant count")

	resp, _ = doJSON(t, app, "POST", "/matches/"+match.ID+"/join", "")
	assert.Equal(t, 409, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", "/matches/"+match.ID+"/leave", "")
	require.Equal(t, 200, resp.StatusCode)
	require.NoError(t, db.First(&reloaded, "id = ?", match.ID).Error)
	assert.Equal(t, int64(0), reloaded.Pot)

	resp, _ = doJSON(t, app, "DELETE", "/matches/"+match.ID+"/leave", "")
	assert.Equal(t, 404, resp.StatusCode)
}

func TestMembershipLockedOnceMatchStarts(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin")
	player := seedUser(t, db, "player")
	game := seedGame(t, db, "foosball", models.GameTypeIndividual)
	match := seedMatch(t, db, game, admin)
	require.NoError(t, db.Model(&models.Match{}).Where("id = ?", match.ID).
		Update("status", models.MatchStatusInProgress).Error)
	app, _ := newMatchTestApp(t, db, player.ID)

	resp, body := doJSON(t, app, "POST", "/matches/"+match.ID+"/join", "")
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, body["error"], "pending")
}

func TestUpdateStatusNeverCompletes(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin")
	game := seedGame(t, db, "foosball", models.GameTypeIndividual)
	match := seedMatch(t, db, game, admin)
	app, _ := newMatchTestApp(t, db, admin.ID)

	resp, _ := doJSON(t, app, "PATCH", "/matches/"+match.ID+"/status", `{"status":"in_progress"}`)
	require.Equal(t, 200, resp.StatusCode)

	resp, body := doJSON(t, app, "PATCH", "/matches/"+match.ID+"/status", `{"status":"completed"}`)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, body["error"], "scoring")

	resp, _ = doJSON(t, app, "PATCH", "/matches/"+match.ID+"/status", `{"status":"bogus"}`)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestDeclareJokerChecks(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin")
	player := seedUser(t, db, "player")
	game := seedGame(t, db, "foosball", models.GameTypeIndividual)
	match := seedMatch(t, db, game, admin, player)
	app, _ := newMatchTestApp(t, db, player.ID)

	resp, _ := doJSON(t, app, "POST", "/matches/"+match.ID+"/joker", "")
	require.Equal(t, 200, resp.StatusCode)

	var p models.MatchParticipant
	require.NoError(t, db.First(&p, "match_id = ? AND user_id = ?", match.ID, player.ID).Error)
	assert.True(t, p.JokerDeclared)

	// a spent joker cannot be declared again
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", player.ID).
		Update("joker_used", true).Error)
	resp, body := doJSON(t, app, "POST", "/matches/"+match.ID+"/joker", "")
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, body["error"], "joker")
}

func TestGetParticipation(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin")
	player := seedUser(t, db, "player")
	game := seedGame(t, db, "foosball", models.GameTypeIndividual)
	joined := seedMatch(t, db, game, admin, player)
	seedMatch(t, db, game, admin)
	require.NoError(t, db.Model(&models.MatchParticipant{}).
		Where("match_id = ? AND user_id = ?", joined.ID, player.ID).
		Update("joker_declared", true).Error)
	app, _ := newMatchTestApp(t, db, player.ID)

	resp, body := doJSON(t, app, "GET", "/matches/participation", "")
	require.Equal(t, 200, resp.StatusCode)

	participation := body["participation"].(map[string]interface{})
	assert.Equal(t, true, participation[joined.ID])
	assert.Len(t, participation, 1)
	declarations := body["joker_declarations"].(map[string]interface{})
	assert.Equal(t, true, declarations[joined.ID])
}
