package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/models"
)

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []models.Notification
	nextID        uint
}

func (f *fakeNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	notification.ID = f.nextID
	notification.CreatedAt = time.Now()
	notification.UpdatedAt = notification.CreatedAt
	f.notifications = append(f.notifications, *notification)
	return nil
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, notification := range f.notifications {
		if notification.UserID == userID {
			out = append(out, notification)
		}
	}
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id uint, userID string) (models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, notification := range f.notifications {
		if notification.ID == id && notification.UserID == userID {
			f.notifications[i].Read = true
			return f.notifications[i], nil
		}
	}
	return models.Notification{}, gorm.ErrRecordNotFound
}

func (f *fakeNotificationRepo) FindByID(_ context.Context, id uint) (models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, notification := range f.notifications {
		if notification.ID == id {
			return notification, nil
		}
	}
	return models.Notification{}, gorm.ErrRecordNotFound
}

func newNotificationFixture() (*fakeNotificationRepo, NotificationService) {
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, nil, "", nil, validator.New(validator.WithRequiredStructEnabled()), testLogger())
	return repo, svc
}

func TestNotificationPublishSanitizesMessage(t *testing.T) {
	_, svc := newNotificationFixture()

	notification, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "42",
		Type:    "deliverable_review",
		Message: "<script>alert(1)</script>Your report was approved",
	})
	require.NoError(t, err)
	require.Equal(t, "Your report was approved", notification.Message)
}

func TestNotificationPublishRejectsEmptyAfterSanitization(t *testing.T) {
	_, svc := newNotificationFixture()

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "42",
		Type:    "deliverable_review",
		Message: "<script>alert(1)</script>",
	})
	require.Error(t, err)
}

func TestNotificationPublishDeliversToSubscriber(t *testing.T) {
	_, svc := newNotificationFixture()

	events, cancel := svc.Subscribe("42")
	defer cancel()

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "42",
		Type:    "proposal_decision",
		Message: "Your proposal moved to coordinator review",
	})
	require.NoError(t, err)

	select {
	case notification := <-events:
		require.Equal(t, "proposal_decision", notification.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a notification on the subscription channel")
	}
}

func TestNotificationSubscribeIsolatesUsers(t *testing.T) {
	_, svc := newNotificationFixture()

	other, cancel := svc.Subscribe("99")
	defer cancel()

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "42",
		Type:    "proposal_decision",
		Message: "Not for user 99",
	})
	require.NoError(t, err)

	select {
	case notification := <-other:
		t.Fatalf("unexpected notification for other user: %+v", notification)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotificationMarkReadScopedToOwner(t *testing.T) {
	_, svc := newNotificationFixture()

	created, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "42",
		Type:    "deliverable_review",
		Message: "Advisor approved your monthly report",
	})
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), created.ID, "7")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	updated, err := svc.MarkRead(context.Background(), created.ID, "42")
	require.NoError(t, err)
	require.True(t, updated.Read)
}

func TestNotificationListFiltersByUser(t *testing.T) {
	_, svc := newNotificationFixture()

	for _, userID := range []string{"42", "42", "7"} {
		_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
			UserID:  userID,
			Type:    "deliverable_review",
			Message: "Review recorded",
		})
		require.NoError(t, err)
	}

	listed, err := svc.List(context.Background(), "42", 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	_, err = svc.List(context.Background(), "  ", 10, 0)
	require.Error(t, err)
}
