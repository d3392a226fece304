package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/putraaxzy/be-artemis/internal/apperr"
	"github.com/putraaxzy/be-artemis/internal/models"
	"github.com/putraaxzy/be-artemis/internal/repository"
)

// pushTimeout bounds a single Web Push delivery. Dispatch happens after the
// state-changing write and must never block it longer than this.
const pushTimeout = 10 * time.Second

// PushMessage is the JSON payload delivered to the service worker.
type PushMessage struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Icon  string                 `json:"icon,omitempty"`
	Badge string                 `json:"badge,omitempty"`
	Tag   string                 `json:"tag,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// SubscribeRequest registers one browser push subscription.
type SubscribeRequest struct {
	Endpoint  string `json:"endpoint" validate:"required,url"`
	AuthKey   string `json:"auth_key" validate:"required"`
	P256dhKey string `json:"p256dh_key" validate:"required"`
	UserAgent string `json:"-"`
}

// PushService manages Web Push subscriptions and event fan-out. All Notify
// methods are fire-and-forget: failures are logged, never propagated.
type PushService interface {
	Subscribe(userID uint, req *SubscribeRequest) error
	Unsubscribe(userID uint, endpoint string) error
	VAPIDPublicKey() string
	SubscriptionCount(userID uint) (int64, error)
	SendToUser(userID uint, msg *PushMessage) bool

	NotifyTaskCreated(task *models.Task, studentIDs []uint)
	NotifyTaskSubmitted(task *models.Task, student *models.User)
	NotifyUserFollowed(follower *models.User, followingID uint)
}

type pushService struct {
	subRepo    repository.PushSubscriptionRepository
	publicKey  string
	privateKey string
	subject    string
	appURL     string
	client     *http.Client
}

func NewPushService(
	subRepo repository.PushSubscriptionRepository,
	publicKey, privateKey, subject, appURL string,
) PushService {
	return &pushService{
		subRepo:    subRepo,
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
		appURL:     appURL,
		client:     &http.Client{Timeout: pushTimeout},
	}
}

func (s *pushService) Subscribe(userID uint, req *SubscribeRequest) error {
	if err := validate.Struct(req); err != nil {
		return apperr.Validation("endpoint, auth_key and p256dh_key are required")
	}

	now := time.Now()
	return s.subRepo.Upsert(&models.PushSubscription{
		UserID:     userID,
		Endpoint:   req.Endpoint,
		AuthKey:    req.AuthKey,
		P256dhKey:  req.P256dhKey,
		UserAgent:  req.UserAgent,
		LastUsedAt: &now,
	})
}

func (s *pushService) Unsubscribe(userID uint, endpoint string) error {
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return apperr.Validation("endpoint must be a valid URL")
	}
	return s.subRepo.DeleteByUserAndEndpoint(userID, endpoint)
}

func (s *pushService) VAPIDPublicKey() string { return s.publicKey }

func (s *pushService) SubscriptionCount(userID uint) (int64, error) {
	return s.subRepo.CountByUser(userID)
}

// SendToUser delivers the message to every subscription the user holds and
// reports whether at least one delivery succeeded. Subscriptions the push
// service rejects as gone are pruned; transient failures keep them.
func (s *pushService) SendToUser(userID uint, msg *PushMessage) bool {
	subs, err := s.subRepo.ListByUser(userID)
	if err != nil {
		log.Printf("push: failed to list subscriptions for user %d: %v", userID, err)
		return false
	}
	if len(subs) == 0 {
		return false
	}

	if s.publicKey == "" || s.privateKey == "" {
		log.Printf("push: VAPID keys not configured, skipping delivery")
		return false
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("push: failed to marshal payload: %v", err)
		return false
	}

	successCount := 0
	for _, sub := range subs {
		delivered, gone := s.pushMessage(sub, payload, msg.Tag)
		switch {
		case delivered:
			successCount++
			if err := s.subRepo.Touch(sub.ID, time.Now()); err != nil {
				log.Printf("push: failed to touch subscription %d: %v", sub.ID, err)
			}
		case gone:
			if err := s.subRepo.Delete(sub.ID); err != nil {
				log.Printf("push: failed to prune subscription %d: %v", sub.ID, err)
			}
		}
	}

	return successCount > 0
}

// pushMessage reports whether the delivery succeeded and, when it did not,
// whether the endpoint said the subscription no longer exists.
func (s *pushService) pushMessage(sub *models.PushSubscription, payload []byte, topic string) (delivered, gone bool) {
	resp, err := webpush.SendNotification(payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.AuthKey,
			P256dh: sub.P256dhKey,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subject,
		Topic:           topic,
		TTL:             24 * 60 * 60,
		Urgency:         webpush.UrgencyHigh,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
	})
	if err != nil {
		log.Printf("push: delivery to %s failed: %v", sub.Endpoint, err)
		return false, false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, false
	}
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Printf("push: subscription no longer valid: %s", sub.Endpoint)
		return false, true
	}

	log.Printf("push: delivery to %s failed with status %d", sub.Endpoint, resp.StatusCode)
	return false, false
}

func (s *pushService) NotifyTaskCreated(task *models.Task, studentIDs []uint) {
	msg := &PushMessage{
		Title: "Tugas Baru!",
		Body:  fmt.Sprintf("%s memberikan tugas: %s", task.Teacher.Name, task.Title),
		Badge: s.appURL + "/batik.png",
		Tag:   fmt.Sprintf("task-created-%d", task.ID),
		Data: map[string]interface{}{
			"type":   "task_created",
			"url":    fmt.Sprintf("/tugas/%d", task.ID),
			"taskId": task.ID,
		},
	}
	for _, studentID := range studentIDs {
		s.SendToUser(studentID, msg)
	}
}

func (s *pushService) NotifyTaskSubmitted(task *models.Task, student *models.User) {
	s.SendToUser(task.TeacherID, &PushMessage{
		Title: "Tugas Dikumpulkan",
		Body:  fmt.Sprintf("%s mengumpulkan tugas: %s", student.Name, task.Title),
		Badge: s.appURL + "/batik.png",
		Tag:   fmt.Sprintf("task-submitted-%d-%d", task.ID, student.ID),
		Data: map[string]interface{}{
			"type":      "task_submitted",
			"url":       fmt.Sprintf("/tugas/%d/detail", task.ID),
			"taskId":    task.ID,
			"studentId": student.ID,
		},
	})
}

func (s *pushService) NotifyUserFollowed(follower *models.User, followingID uint) {
	s.SendToUser(followingID, &PushMessage{
		Title: "Follower Baru!",
		Body:  fmt.Sprintf("%s mulai mengikuti Anda", follower.Name),
		Badge: s.appURL + "/batik.png",
		Tag:   fmt.Sprintf("user-followed-%d", follower.ID),
		Data: map[string]interface{}{
			"type":             "follow",
			"url":              "/profile/" + follower.Username,
			"followerId":       follower.ID,
			"followerUsername": follower.Username,
		},
	})
}
