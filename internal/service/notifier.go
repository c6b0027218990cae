package service

import (
	"context"
	"log"

	"github.com/driveu/backend/internal/notify"
	"github.com/driveu/backend/internal/repository"
)

// Notifier resolves a user's device token and pushes a message. Delivery is
// best-effort: failures are logged, never returned.
type Notifier struct {
	userRepo repository.UserRepository
	sender   notify.Sender
}

func NewNotifier(userRepo repository.UserRepository, sender notify.Sender) *Notifier {
	return &Notifier{userRepo: userRepo, sender: sender}
}

func (n *Notifier) push(ctx context.Context, userID, title, body string) {
	if n.sender == nil {
		return
	}

	user, err := n.userRepo.GetByID(ctx, userID)
	if err != nil || user == nil {
		log.Printf("notify: could not load user %s: %v", userID, err)
		return
	}

	if err := n.sender.Send(ctx, user.FCMToken, title, body); err != nil {
		log.Printf("notify: push to user %s failed: %v", userID, err)
	}
}
