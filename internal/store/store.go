package store

import (
	"context"
	"fmt"
	"strings"

	"project-board-api/internal/models"

	"gorm.io/gorm"
)

// Store bundles the gateways of every record kind. No operation spans more
// than one record; there are no cross-kind transactions.
type Store struct {
	db            *gorm.DB
	Users         *Repository[models.User]
	Projects      *Repository[models.Project]
	Tasks         *Repository[models.Task]
	Comments      *Repository[models.Comment]
	Notifications *Repository[models.Notification]
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewRepository[models.User](db, "user"),
		Projects:      NewRepository[models.Project](db, "project"),
		Tasks:         NewRepository[models.Task](db, "task"),
		Comments:      NewRepository[models.Comment](db, "comment"),
		Notifications: NewRepository[models.Notification](db, "notification"),
	}
}

// ProjectsForUser lists projects the user owns or is a member of, newest first.
func (s *Store) ProjectsForUser(ctx context.Context, userID string) ([]models.Project, error) {
	projects := make([]models.Project, 0)
	err := s.db.WithContext(ctx).
		Where("owner_id = ? OR EXISTS (SELECT 1 FROM json_each(CAST(projects.members AS TEXT)) WHERE json_each.value = ?)", userID, userID).
		Order("created_at desc").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list projects for user: %w", err)
	}
	return projects, nil
}

// LaneCounts returns the number of tasks per board lane of a project.
// Every lane is present in the result, zero when empty.
func (s *Store) LaneCounts(ctx context.Context, projectID string) (map[models.TaskStatus]int64, error) {
	type row struct {
		Status string
		Count  int64
	}

	var rows []row
	if err := s.db.WithContext(ctx).Model(&models.Task{}).
		Select("status, COUNT(*) as count").
		Where("project_id = ?", projectID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count lanes: %w", err)
	}

	counts := make(map[models.TaskStatus]int64, len(models.Lanes))
	for _, lane := range models.Lanes {
		counts[lane] = 0
	}
	for _, r := range rows {
		counts[models.TaskStatus(r.Status)] = r.Count
	}
	return counts, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// SearchUsers lists users whose username contains q, case-insensitively,
// ordered by username. An empty q lists everyone.
func (s *Store) SearchUsers(ctx context.Context, q string, limit int) ([]models.User, error) {
	users := make([]models.User, 0)
	tx := s.db.WithContext(ctx).Order("username asc")
	if q != "" {
		tx = tx.Where(`LOWER(username) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(q))+"%")
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}
