package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/apperr"
	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/repository"
)

// performanceWindow is how many recent graded assignments feed the chart.
const performanceWindow = 10

// maxBioLength caps the profile bio.
const maxBioLength = 200

// UserSummary is the compact user card used by search and follow lists.
type UserSummary struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Role     models.UserRole `json:"role"`
	Class    string          `json:"class,omitempty"`
	Major    string          `json:"major,omitempty"`
	Avatar   string          `json:"avatar"`
}

// PerformancePoint is one graded assignment on the profile chart.
type PerformancePoint struct {
	Task  string `json:"task"`
	Score int    `json:"score"`
	Date  string `json:"date"`
}

// ProfileStats carries the student's assignment statistics.
type ProfileStats struct {
	TotalTasks     int64              `json:"total_tasks"`
	CompletedTasks int64              `json:"completed_tasks"`
	AverageScore   float64            `json:"average_score"`
	Performance    []PerformancePoint `json:"performance"`
}

// Profile is the public profile view.
type Profile struct {
	ID             uint            `json:"id"`
	Username       string          `json:"username"`
	Name           string          `json:"name"`
	Bio            string          `json:"bio"`
	Avatar         string          `json:"avatar"`
	Role           models.UserRole `json:"role"`
	Class          string          `json:"class,omitempty"`
	Major          string          `json:"major,omitempty"`
	FollowersCount int64           `json:"followers_count"`
	FollowingCount int64           `json:"following_count"`
	IsFollowing    bool            `json:"is_following"`
	Stats          *ProfileStats   `json:"stats,omitempty"`
}

// ProfileService is the social layer: public profiles, follows and search.
type ProfileService interface {
	// Profile resolves ref as a username first, then as a numeric id.
	Profile(viewer *models.User, ref string) (*Profile, error)
	UpdateBio(user *models.User, bio string) (*models.User, error)
	Follow(follower *models.User, targetID uint) error
	Unfollow(followerID, targetID uint) error
	Followers(userID uint) ([]UserSummary, error)
	Following(userID uint) ([]UserSummary, error)
	Search(query string) ([]UserSummary, error)
}

type profileService struct {
	userRepo       repository.UserRepository
	followRepo     repository.FollowRepository
	assignmentRepo repository.AssignmentRepository
	push           PushService
	appURL         string
}

func NewProfileService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	assignmentRepo repository.AssignmentRepository,
	push PushService,
	appURL string,
) ProfileService {
	return &profileService{
		userRepo:       userRepo,
		followRepo:     followRepo,
		assignmentRepo: assignmentRepo,
		push:           push,
		appURL:         appURL,
	}
}

func (s *profileService) Profile(viewer *models.User, ref string) (*Profile, error) {
	user, err := s.resolveUser(ref)
	if err != nil {
		return nil, err
	}

	followers, err := s.followRepo.CountFollowers(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "count followers")
	}
	following, err := s.followRepo.CountFollowing(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "count following")
	}

	profile := &Profile{
		ID:             user.ID,
		Username:       user.Username,
		Name:           user.Name,
		Bio:            user.Bio,
		Avatar:         s.avatarURL(user),
		Role:           user.Role,
		Class:          user.Class,
		Major:          user.Major,
		FollowersCount: followers,
		FollowingCount: following,
	}

	if viewer != nil && viewer.ID != user.ID {
		isFollowing, err := s.followRepo.Exists(viewer.ID, user.ID)
		if err != nil {
			return nil, errors.Wrap(err, "check follow")
		}
		profile.IsFollowing = isFollowing
	}

	if user.Role == models.RoleStudent {
		stats, err := s.studentStats(user.ID)
		if err != nil {
			return nil, err
		}
		profile.Stats = stats
	}

	return profile, nil
}

func (s *profileService) studentStats(studentID uint) (*ProfileStats, error) {
	total, err := s.assignmentRepo.CountByStudent(studentID)
	if err != nil {
		return nil, errors.Wrap(err, "count assignments")
	}
	completed, err := s.assignmentRepo.CountByStudentAndStatus(studentID, models.AssignmentStatusCompleted)
	if err != nil {
		return nil, errors.Wrap(err, "count completed")
	}
	avg, err := s.assignmentRepo.AverageScoreByStudent(studentID)
	if err != nil {
		return nil, errors.Wrap(err, "average score")
	}
	graded, err := s.assignmentRepo.ListGradedByStudent(studentID, performanceWindow)
	if err != nil {
		return nil, errors.Wrap(err, "list graded")
	}

	performance := make([]PerformancePoint, 0, len(graded))
	// Oldest first so the chart reads left to right.
	for i := len(graded) - 1; i >= 0; i-- {
		a := graded[i]
		score := 0
		if a.Score != nil {
			score = *a.Score
		}
		performance = append(performance, PerformancePoint{
			Task:  a.Task.Title,
			Score: score,
			Date:  a.UpdatedAt.Format("2006-01-02"),
		})
	}

	return &ProfileStats{
		TotalTasks:     total,
		CompletedTasks: completed,
		AverageScore:   avg,
		Performance:    performance,
	}, nil
}

func (s *profileService) UpdateBio(user *models.User, bio string) (*models.User, error) {
	bio = strings.TrimSpace(bio)
	if len(bio) > maxBioLength {
		return nil, apperr.Validation(fmt.Sprintf("bio must be at most %d characters", maxBioLength))
	}
	user.Bio = bio
	if err := s.userRepo.Update(user); err != nil {
		return nil, errors.Wrap(err, "update bio")
	}
	return user, nil
}

func (s *profileService) Follow(follower *models.User, targetID uint) error {
	if follower.ID == targetID {
		return apperr.Conflict("you cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found")
		}
		return errors.Wrap(err, "load user")
	}

	exists, err := s.followRepo.Exists(follower.ID, targetID)
	if err != nil {
		return errors.Wrap(err, "check follow")
	}
	if exists {
		return apperr.Conflict("you are already following this user")
	}

	err = s.followRepo.Create(&models.Follow{FollowerID: follower.ID, FollowingID: targetID})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("you are already following this user")
		}
		return errors.Wrap(err, "create follow")
	}

	s.push.NotifyUserFollowed(follower, targetID)
	return nil
}

func (s *profileService) Unfollow(followerID, targetID uint) error {
	exists, err := s.followRepo.Exists(followerID, targetID)
	if err != nil {
		return errors.Wrap(err, "check follow")
	}
	if !exists {
		return apperr.NotFound("you are not following this user")
	}
	return errors.Wrap(s.followRepo.Delete(followerID, targetID), "delete follow")
}

func (s *profileService) Followers(userID uint) ([]UserSummary, error) {
	users, err := s.followRepo.ListFollowers(userID)
	if err != nil {
		return nil, errors.Wrap(err, "list followers")
	}
	return s.summaries(users), nil
}

func (s *profileService) Following(userID uint) ([]UserSummary, error) {
	users, err := s.followRepo.ListFollowing(userID)
	if err != nil {
		return nil, errors.Wrap(err, "list following")
	}
	return s.summaries(users), nil
}

func (s *profileService) Search(query string) ([]UserSummary, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, apperr.Validation("search query must be at least 2 characters")
	}
	users, err := s.userRepo.Search(query, 20)
	if err != nil {
		return nil, errors.Wrap(err, "search users")
	}
	return s.summaries(users), nil
}

func (s *profileService) resolveUser(ref string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ref)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "load user")
	}

	if id, convErr := strconv.ParseUint(ref, 10, 32); convErr == nil {
		user, err = s.userRepo.GetByID(uint(id))
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(err, "load user")
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (s *profileService) summaries(users []models.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, UserSummary{
			ID:       u.ID,
			Username: u.Username,
			Name:     u.Name,
			Role:     u.Role,
			Class:    u.Class,
			Major:    u.Major,
			Avatar:   s.avatarURL(u),
		})
	}
	return out
}

// avatarURL returns the stored avatar URL, or a generated initials avatar
// when the user never uploaded one.
func (s *profileService) avatarURL(user *models.User) string {
	if user.Avatar != "" {
		return s.appURL + "/uploads/" + user.Avatar
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(user.Name) + "&background=random"
}
