package jobs

import (
	"fmt"

	"github.com/anjiri1684/appointment_reminder/models"
	"github.com/anjiri1684/appointment_reminder/notifications"
)

func ReminderMessage(b models.Booking) notifications.Message {
	return notifications.Message{
		Subject: "⏰ Appointment Reminder",
		Text:    fmt.Sprintf("⏰ Hello %s, reminder for your appointment at %s on %s.", b.Name, b.Slot, b.Date),
	}
}

// NewReminderTask notifies bookings whose appointment starts within w.
func NewReminderTask(w Window, store BookingStore, dispatcher Dispatcher, opts ...TaskOption) *Task {
	return NewTask(TaskConfig{
		Kind:     KindReminder,
		Flag:     models.FlagReminder,
		Window:   w,
		Template: ReminderMessage,
		EventKey: notifications.RKReminderSent,
	}, store, dispatcher, opts...)
}
