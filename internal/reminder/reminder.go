// Package reminder builds the short follow-up messages users paste into chat
// or email when a task is waiting on someone else.
package reminder

import (
	"fmt"
	"time"

	"github.com/nhle/ops-board/internal/model"
)

// LongWaitDays is the wait after which a chase message refers back to the
// earlier request.
const LongWaitDays = 3

// ChaseMessage returns a polite nudge for a task that has been waiting
// daysWaiting days on an external reply.
func ChaseMessage(taskName string, daysWaiting int) string {
	ref := "regarding"
	if daysWaiting > LongWaitDays {
		ref = "following up on my earlier request about"
	}
	return fmt.Sprintf(
		"Hello, %s %s: could you take a look when you have a moment? "+
			"A reply by the end of today would help us lock in the schedule.",
		ref, taskName,
	)
}

// RemindMessage returns a reminder in the requested tone. Unknown tones
// use the chat template.
func RemindMessage(taskName string, tone model.Tone) string {
	if tone == model.ToneEmail {
		return fmt.Sprintf(
			"Hello,\n\nI am writing to follow up on %q. "+
				"Could you let me know where things stand at your earliest convenience?\n\n"+
				"Thank you.",
			taskName,
		)
	}
	return fmt.Sprintf("Hi! Quick check on %q, any update when you get a chance?", taskName)
}

// DaysWaiting returns the whole days elapsed since meta.LastUpdated, or 0
// when the task has never been touched.
func DaysWaiting(meta *model.TaskMeta, now time.Time) int {
	if meta == nil || meta.LastUpdated == nil || meta.LastUpdated.IsZero() {
		return 0
	}
	elapsed := now.Sub(meta.LastUpdated.Time())
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}
