package jobs

import (
	"fmt"

	"github.com/anjiri1684/appointment_reminder/models"
	"github.com/anjiri1684/appointment_reminder/notifications"
)

func FeedbackMessage(b models.Booking) notifications.Message {
	return notifications.Message{
		Subject: "📝 Appointment Feedback",
		Text:    fmt.Sprintf("📝 Hi %s, we hope your appointment at %s on %s went well. Please share your feedback!", b.Name, b.Slot, b.Date),
	}
}

// NewFeedbackTask asks for feedback on appointments that ended recently,
// as described by w.
func NewFeedbackTask(w Window, store BookingStore, dispatcher Dispatcher, opts ...TaskOption) *Task {
	return NewTask(TaskConfig{
		Kind:     KindFeedback,
		Flag:     models.FlagFeedback,
		Window:   w,
		Template: FeedbackMessage,
		EventKey: notifications.RKFeedbackSent,
	}, store, dispatcher, opts...)
}
