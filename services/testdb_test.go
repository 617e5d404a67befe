package services

import (
	"fmt"
	"testing"
	"time"

	"mini-olympics-system/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.Match{},
		&models.MatchParticipant{},
		&models.MatchTeam{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: username,
		Role:        models.RolePlayer,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return user
}

func seedGame(t *testing.T, db *gorm.DB, name, gameType string) *models.Game {
	t.Helper()
	game := &models.Game{
		ID:         uuid.NewString(),
		Name:       name,
		Slug:       name,
		Type:       gameType,
		MinPlayers: 2,
		TimeFactor: 1.0,
	}
	if err := db.Create(game).Error; err != nil {
		t.Fatalf("failed to seed game %s: %v", name, err)
	}
	return game
}

func seedMatch(t *testing.T, db *gorm.DB, game *models.Game, admin *models.User, players ...*models.User) *models.Match {
	t.Helper()
	match := &models.Match{
		ID:          uuid.NewString(),
		GameID:      game.ID,
		AdminID:     admin.ID,
		MiniAdminID: admin.ID,
		TimeFactor:  1.0,
		Status:      models.MatchStatusPending,
	}
	if err := db.Create(match).Error; err != nil {
		t.Fatalf("failed to seed match: %v", err)
	}
	for _, p := range players {
		addParticipant(t, db, match, p)
	}
	return match
}

func addParticipant(t *testing.T, db *gorm.DB, match *models.Match, user *models.User) *models.MatchParticipant {
	t.Helper()
	participant := &models.MatchParticipant{
		ID:      uuid.NewString(),
		MatchID: match.ID,
		UserID:  user.ID,
	}
	if err := db.Create(participant).Error; err != nil {
		t.Fatalf("failed to add participant %s: %v", user.Username, err)
	}
	return participant
}
